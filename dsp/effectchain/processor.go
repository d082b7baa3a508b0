package effectchain

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/effects"
	"github.com/cwbudde/algo-fxchain/measure/level"
)

type processorConfig struct {
	gainOpts   []effects.GainOption
	meterOpts  []level.Option
	paramsOpts []ParamsOption
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

// WithGainRamp sets the settling time of the three gain stages.
func WithGainRamp(ms float64) ProcessorOption {
	return func(c *processorConfig) {
		c.gainOpts = append(c.gainOpts, effects.WithGainRampMs(ms))
	}
}

// WithChannelMaxMeters makes both level meters report the loudest channel.
func WithChannelMaxMeters() ProcessorOption {
	return func(c *processorConfig) {
		c.meterOpts = append(c.meterOpts, level.WithChannelMax())
	}
}

// WithParamsOptions forwards options to the parameter store.
func WithParamsOptions(opts ...ParamsOption) ProcessorOption {
	return func(c *processorConfig) {
		c.paramsOpts = append(c.paramsOpts, opts...)
	}
}

// Processor is what an audio callback drives. Each Process call picks up
// parameter changes, meters the input, runs the chain and meters the
// output.
//
// Prepare and Release are control operations and must not overlap with
// Process. Params, the level getters, Blocks and State are safe from any
// goroutine.
type Processor struct {
	chain    *Chain
	params   *Params
	inMeter  *level.Meter
	outMeter *level.Meter
	blocks   atomic.Uint64
}

// NewProcessor returns an unprepared processor with default parameters.
func NewProcessor(opts ...ProcessorOption) *Processor {
	cfg := &processorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return &Processor{
		chain:    NewChain(cfg.gainOpts...),
		params:   NewParams(cfg.paramsOpts...),
		inMeter:  level.NewMeter(cfg.meterOpts...),
		outMeter: level.NewMeter(cfg.meterOpts...),
	}
}

// Prepare readies the processor for blocks of up to blockSize frames with
// the given channel count at sampleRate. The chain starts from the current
// parameter values with all processing state cleared.
func (p *Processor) Prepare(sampleRate float64, blockSize, channels int) error {
	spec := core.ProcessSpec{SampleRate: sampleRate, BlockSize: blockSize, Channels: channels}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("prepare processor: %w", err)
	}

	p.params.SetSampleRate(sampleRate)
	p.params.Configure(p.chain)

	if err := p.chain.Prepare(spec); err != nil {
		return err
	}

	p.params.Apply(p.chain)
	p.inMeter.Prepare(spec)
	p.outMeter.Prepare(spec)
	p.blocks.Store(0)

	return nil
}

// Process runs one block in place.
//
// It panics with ErrNotPrepared before Prepare.
func (p *Processor) Process(block [][]float64) {
	if p.chain.State() != StateReady {
		panic(ErrNotPrepared)
	}

	p.params.Apply(p.chain)
	p.inMeter.Process(block)
	p.chain.Process(block)
	p.outMeter.Process(block)
	p.blocks.Add(1)
}

// Release stops processing and clears transient state. Parameters persist
// and a later Prepare resumes from them.
func (p *Processor) Release() {
	p.chain.Release()
	p.inMeter.Reset()
	p.outMeter.Reset()
}

// Params returns the parameter store.
func (p *Processor) Params() *Params { return p.params }

// Chain returns the underlying chain. Its setters follow the Chain
// threading rules; change parameters through Params instead.
func (p *Processor) Chain() *Chain { return p.chain }

// InputLevel returns the latest input meter reading in [0, 1].
func (p *Processor) InputLevel() float64 { return p.inMeter.Level() }

// OutputLevel returns the latest output meter reading in [0, 1].
func (p *Processor) OutputLevel() float64 { return p.outMeter.Level() }

// GainReductionDB returns the compressor's latest gain reduction.
func (p *Processor) GainReductionDB() float64 { return p.chain.Compressor().GainReductionDB() }

// Blocks returns the number of blocks processed since the last Prepare.
func (p *Processor) Blocks() uint64 { return p.blocks.Load() }

// State returns the chain's lifecycle state.
func (p *Processor) State() State { return p.chain.State() }

// Spec returns the prepared spec.
func (p *Processor) Spec() core.ProcessSpec { return p.chain.Spec() }
