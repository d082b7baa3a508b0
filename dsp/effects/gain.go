package effects

import (
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultGainRampMs is the time a gain change needs to settle within 1%.
	DefaultGainRampMs = 50.0

	// gainSnapEpsilon is the distance at which the ramp jumps onto the target.
	gainSnapEpsilon = 1e-6

	// The one-pole time constant is a fifth of the ramp, leaving e^-5 (0.7%)
	// of a step after the full ramp time.
	gainRampTimeConstants = 5.0
)

// GainOption configures a Gain.
type GainOption func(*Gain)

// WithGainRampMs sets the settling time of gain changes. Zero or a negative
// value makes changes instantaneous.
func WithGainRampMs(ms float64) GainOption {
	return func(g *Gain) {
		if !math.IsNaN(ms) {
			g.rampMs = ms
		}
	}
}

// WithGainDB sets the initial gain in dB.
func WithGainDB(db float64) GainOption {
	return func(g *Gain) {
		g.SetGainDecibels(db)
		g.current = g.target
	}
}

// Gain is a smoothed amplitude stage.
//
// A new target set with SetGainDecibels is approached sample by sample with a
// one-pole ramp, so parameter moves never produce a step in the output. The
// ramp values are rendered once per block and applied to every channel.
//
// Gain is not safe for concurrent use; it belongs to the audio goroutine.
type Gain struct {
	targetDB float64
	target   float64
	current  float64

	rampMs     float64
	sampleRate float64
	coeff      float64

	ramp []float64
}

// NewGain returns a unity gain stage prepared for 48 kHz and 512-frame
// blocks. Prepare it with the real spec before processing.
func NewGain(opts ...GainOption) *Gain {
	g := &Gain{
		target:  1,
		current: 1,
		rampMs:  DefaultGainRampMs,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	g.Prepare(core.DefaultProcessSpec())

	return g
}

// Prepare adopts the spec's sample rate and block size, then snaps to the
// target. Not real-time safe.
func (g *Gain) Prepare(spec core.ProcessSpec) {
	g.sampleRate = spec.SampleRate
	g.ramp = core.EnsureLen(g.ramp, spec.BlockSize)
	g.updateCoefficient()
	g.Reset()
}

// SetGainDecibels sets the target gain. Only the target changes; the audible
// gain follows over the ramp time. NaN is ignored.
func (g *Gain) SetGainDecibels(db float64) {
	if math.IsNaN(db) || db == g.targetDB {
		return
	}

	g.targetDB = db
	g.target = core.DBToLinear(db)
}

// SetRampMs changes the settling time. Real-time safe.
func (g *Gain) SetRampMs(ms float64) {
	if math.IsNaN(ms) {
		return
	}

	g.rampMs = ms
	g.updateCoefficient()
}

// GainDecibels returns the target gain in dB.
func (g *Gain) GainDecibels() float64 { return g.targetDB }

// Target returns the linear target gain.
func (g *Gain) Target() float64 { return g.target }

// Current returns the linear gain applied to the most recent sample.
func (g *Gain) Current() float64 { return g.current }

// RampMs returns the configured settling time.
func (g *Gain) RampMs() float64 { return g.rampMs }

// Settled reports whether the current gain equals the target.
func (g *Gain) Settled() bool { return g.current == g.target }

// Process applies the gain to block in place.
func (g *Gain) Process(block [][]float64) {
	frames := core.Frames(block)
	if frames == 0 {
		return
	}

	if g.current == g.target {
		if g.target == 1 {
			return
		}

		for _, ch := range block {
			vecmath.ScaleBlock(ch, ch, g.target)
		}

		return
	}

	// Blocks larger than the prepared size are ramped in chunks.
	for start := 0; start < frames; {
		n := min(frames-start, len(g.ramp))
		if n == 0 {
			g.ramp = make([]float64, frames)
			n = frames
		}

		ramp := g.ramp[:n]
		g.renderRamp(ramp)

		for _, ch := range block {
			vecmath.MulBlockInPlace(ch[start:start+n], ramp)
		}

		start += n
	}
}

// Reset snaps the current gain to the target.
func (g *Gain) Reset() {
	g.current = g.target
}

func (g *Gain) renderRamp(ramp []float64) {
	c := g.coeff
	cur, tgt := g.current, g.target

	for i := range ramp {
		if cur != tgt {
			cur = tgt + c*(cur-tgt)
			if math.Abs(cur-tgt) < gainSnapEpsilon {
				cur = tgt
			}
		}

		ramp[i] = cur
	}

	g.current = cur
}

func (g *Gain) updateCoefficient() {
	g.coeff = core.SmoothingCoefficient(g.sampleRate, g.rampMs/gainRampTimeConstants)
}
