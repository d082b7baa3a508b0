// Package monitor polls a processor's meters from outside the audio path.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRefreshRate is returned by New for a non-positive refresh rate.
var ErrRefreshRate = errors.New("monitor: refresh rate must be positive")

// Source is what the poller reads. effectchain.Processor satisfies it.
type Source interface {
	InputLevel() float64
	OutputLevel() float64
	GainReductionDB() float64
	Blocks() uint64
}

// Sink receives every reading. metrics.ChainMetrics satisfies it.
type Sink interface {
	UpdateLevels(input, output, gainReductionDB float64)
	ObserveBlocks(total uint64)
}

// Reading is one poll of the meters.
type Reading struct {
	Input           float64   `json:"input"`
	Output          float64   `json:"output"`
	GainReductionDB float64   `json:"gainReductionDB"`
	Blocks          uint64    `json:"blocks"`
	Time            time.Time `json:"time"`
}

// Read takes a reading from src now.
func Read(src Source) Reading {
	return Reading{
		Input:           src.InputLevel(),
		Output:          src.OutputLevel(),
		GainReductionDB: src.GainReductionDB(),
		Blocks:          src.Blocks(),
		Time:            time.Now(),
	}
}

// Option configures a Poller.
type Option func(*Poller)

// WithSink forwards readings to s.
func WithSink(s Sink) Option {
	return func(p *Poller) { p.sinks = append(p.sinks, s) }
}

// WithCallback calls fn with every reading.
func WithCallback(fn func(Reading)) Option {
	return func(p *Poller) { p.callback = fn }
}

// WithLogger logs stalls of the audio side at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Poller) { p.log = l }
}

// Poller reads a Source on a fixed interval.
type Poller struct {
	src      Source
	interval time.Duration
	sinks    []Sink
	callback func(Reading)
	log      logrus.FieldLogger
}

// New returns a poller reading src refreshHz times per second.
func New(src Source, refreshHz float64, opts ...Option) (*Poller, error) {
	if !(refreshHz > 0) {
		return nil, ErrRefreshRate
	}

	p := &Poller{
		src:      src,
		interval: time.Duration(float64(time.Second) / refreshHz),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.interval <= 0 {
		p.interval = time.Nanosecond
	}

	return p, nil
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run polls until ctx is done and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastBlocks uint64
	stalled := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		r := Read(p.src)
		for _, s := range p.sinks {
			s.UpdateLevels(r.Input, r.Output, r.GainReductionDB)
			s.ObserveBlocks(r.Blocks)
		}

		if p.callback != nil {
			p.callback(r)
		}

		if p.log != nil {
			if r.Blocks == lastBlocks && r.Blocks > 0 && !stalled {
				p.log.WithField("blocks", r.Blocks).Debug("audio callback stalled")
			}
			stalled = r.Blocks == lastBlocks && r.Blocks > 0
		}
		lastBlocks = r.Blocks
	}
}
