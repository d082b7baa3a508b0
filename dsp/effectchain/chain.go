package effectchain

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/effects"
	"github.com/cwbudde/algo-fxchain/dsp/effects/dynamics"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad"
	"github.com/cwbudde/algo-fxchain/dsp/filter/design"
)

var (
	// ErrNotPrepared is the panic value of Process on an unprepared chain.
	ErrNotPrepared = errors.New("effectchain: process called before prepare")

	// ErrInvalidSpec is returned by Prepare for an unusable spec.
	ErrInvalidSpec = core.ErrInvalidSpec

	// ErrBandOutOfRange is returned for an EQ band index outside [0, NumEQBands).
	ErrBandOutOfRange = errors.New("effectchain: eq band out of range")
)

// State is the lifecycle state of a Chain.
type State int32

const (
	StateUnprepared State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "unprepared"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// EQBand holds the user parameters of one peaking band.
type EQBand struct {
	FreqHz float64 `json:"freqHz"`
	GainDB float64 `json:"gainDB"`
	Q      float64 `json:"q"`
}

// DefaultEQBands returns the initial low, mid and high bands.
func DefaultEQBands() [NumEQBands]EQBand {
	return [NumEQBands]EQBand{
		{FreqHz: 120, GainDB: 0, Q: 0.7},
		{FreqHz: 1000, GainDB: 0, Q: 0.7},
		{FreqHz: 6000, GainDB: 0, Q: 0.7},
	}
}

func (b EQBand) coefficients(sampleRate float64) biquad.Coefficients {
	return design.Peak(b.FreqHz, b.GainDB, b.Q, sampleRate)
}

// Chain is the fixed-order effects chain.
//
// A Chain is owned by the audio goroutine. Prepare, Release, Process,
// Reset, SetEQBand, EQBand and the stage setters reached through the
// accessors must not run concurrently with each other. Other goroutines
// change parameters through Params, which the audio goroutine picks up with
// Params.Apply. State may be read from anywhere.
type Chain struct {
	state atomic.Int32
	spec  core.ProcessSpec

	inputGain  *effects.Gain
	compressor *dynamics.Compressor
	makeupGain *effects.Gain
	eq         [NumEQBands]*biquad.Stage
	outputGain *effects.Gain

	bands   [NumEQBands]EQBand
	adopted [NumEQBands]*eqSnapshot

	stages [numStages]Stage
}

// NewChain returns an unprepared chain with unity gains, the default
// compressor settings and flat EQ bands.
func NewChain(opts ...effects.GainOption) *Chain {
	c := &Chain{
		inputGain:  effects.NewGain(opts...),
		compressor: dynamics.NewCompressor(),
		makeupGain: effects.NewGain(opts...),
		outputGain: effects.NewGain(opts...),
		bands:      DefaultEQBands(),
	}

	for i := range c.eq {
		c.eq[i] = biquad.NewStage()
	}

	c.stages = [numStages]Stage{
		StageInputGain:  c.inputGain,
		StageCompressor: c.compressor,
		StageMakeupGain: c.makeupGain,
		StageEQ1:        c.eq[0],
		StageEQ2:        c.eq[1],
		StageEQ3:        c.eq[2],
		StageOutputGain: c.outputGain,
	}

	return c
}

// Prepare validates spec, prepares every stage, designs the EQ sections
// for the spec's sample rate and clears all processing state.
func (c *Chain) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("prepare chain: %w", err)
	}

	c.state.Store(int32(StateUnprepared))
	c.spec = spec

	for _, st := range c.stages {
		st.Prepare(spec)
	}

	for i, b := range c.bands {
		c.eq[i].SetCoefficients(b.coefficients(spec.SampleRate))
		c.adopted[i] = nil
	}

	c.state.Store(int32(StateReady))

	return nil
}

// Release returns the chain to the unprepared state and clears transient
// state. Parameter targets are kept.
func (c *Chain) Release() {
	c.state.Store(int32(StateUnprepared))
	c.Reset()
}

// Reset zeroes filter and envelope state and snaps ramping gains onto their
// targets.
func (c *Chain) Reset() {
	for _, st := range c.stages {
		st.Reset()
	}
}

// State returns the lifecycle state.
func (c *Chain) State() State {
	return State(c.state.Load())
}

// Spec returns the prepared spec. It is the zero value before the first
// Prepare.
func (c *Chain) Spec() core.ProcessSpec {
	return c.spec
}

// Process runs block through all stages in order, in place.
//
// It panics with ErrNotPrepared if the chain is unprepared and panics if the
// block's channel count differs from the prepared one. An empty block is a
// no-op.
func (c *Chain) Process(block [][]float64) {
	if c.State() != StateReady {
		panic(ErrNotPrepared)
	}

	if core.Frames(block) == 0 {
		return
	}

	if len(block) != c.spec.Channels {
		panic(fmt.Sprintf("effectchain: block has %d channels, chain prepared for %d", len(block), c.spec.Channels))
	}

	for _, st := range c.stages {
		st.Process(block)
	}
}

// SetEQBand records the parameters of band. When the chain is ready the
// band's coefficients are redesigned right away, otherwise at the next
// Prepare. It must run on the goroutine that calls Process; use
// the Params EQ setters from any other goroutine.
func (c *Chain) SetEQBand(band int, b EQBand) error {
	if band < 0 || band >= NumEQBands {
		return fmt.Errorf("%w: %d", ErrBandOutOfRange, band)
	}

	c.setBand(band, b)

	return nil
}

func (c *Chain) setBand(band int, b EQBand) {
	c.bands[band] = b
	c.adopted[band] = nil
	if c.State() == StateReady {
		c.eq[band].SetCoefficients(b.coefficients(c.spec.SampleRate))
	}
}

// EQBand returns the recorded parameters of band.
func (c *Chain) EQBand(band int) (EQBand, error) {
	if band < 0 || band >= NumEQBands {
		return EQBand{}, fmt.Errorf("%w: %d", ErrBandOutOfRange, band)
	}

	return c.bands[band], nil
}

// adoptEQ swaps in a snapshot designed for the prepared sample rate. It
// reports whether the snapshot was taken. Real-time safe.
func (c *Chain) adoptEQ(band int, s *eqSnapshot) bool {
	if s == nil || s == c.adopted[band] {
		return false
	}

	if s.sampleRate != c.spec.SampleRate || c.State() != StateReady {
		return false
	}

	c.bands[band] = s.band
	c.adopted[band] = s
	c.eq[band].SwapCoefficients(&s.coeffs)

	return true
}

// InputGain returns the input gain stage.
func (c *Chain) InputGain() *effects.Gain { return c.inputGain }

// Compressor returns the compressor stage.
func (c *Chain) Compressor() *dynamics.Compressor { return c.compressor }

// MakeupGain returns the makeup gain stage.
func (c *Chain) MakeupGain() *effects.Gain { return c.makeupGain }

// OutputGain returns the output gain stage.
func (c *Chain) OutputGain() *effects.Gain { return c.outputGain }

// EQ returns the filter stage of band, or nil if band is out of range.
func (c *Chain) EQ(band int) *biquad.Stage {
	if band < 0 || band >= NumEQBands {
		return nil
	}

	return c.eq[band]
}

// Stage returns the stage at id, or nil.
func (c *Chain) Stage(id StageID) Stage {
	if id < 0 || id >= numStages {
		return nil
	}

	return c.stages[id]
}
