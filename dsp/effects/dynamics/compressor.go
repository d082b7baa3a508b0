package dynamics

import (
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/core"
)

const (
	// Defaults match the chain's initial parameter values.
	DefaultThresholdDB = -18.0
	DefaultRatio       = 4.0
	DefaultAttackMs    = 20.0
	DefaultReleaseMs   = 100.0

	// Stage-level limits. The parameter store applies narrower user ranges.
	MinThresholdDB = -60.0
	MaxThresholdDB = 0.0
	MinRatio       = 1.0
	MaxRatio       = 20.0
	MinAttackMs    = 0.1
	MaxAttackMs    = 1000.0
	MinReleaseMs   = 1.0
	MaxReleaseMs   = 5000.0

	// log2Of10Div20 converts dB to the log2 domain: log2(10) / 20.
	log2Of10Div20 = 0.166096404744368117393515971474

	// Envelopes below this level (about -240 dB) are treated as silence.
	minEnvelope = 1e-12
)

// Compressor is a stereo-linked, hard-knee downward compressor.
//
// One envelope follows the largest absolute sample across channels. The
// attack coefficient is used while the detector rises above the envelope,
// the release coefficient otherwise. Setters clamp to the stage limits and
// take effect from the next processed sample.
//
// Setters, Prepare, Process and Reset belong to the audio goroutine.
// GainReductionDB may be read from any goroutine.
type Compressor struct {
	sampleRate float64

	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64

	thresholdLin  float64
	thresholdLog2 float64
	slope         float64 // 1 - 1/ratio
	attackCoeff   float64
	releaseCoeff  float64

	envelope float64

	gainReductionDB core.AtomicFloat64
}

// NewCompressor returns a compressor with default settings prepared for
// 48 kHz.
func NewCompressor() *Compressor {
	c := &Compressor{
		sampleRate:  core.DefaultProcessSpec().SampleRate,
		thresholdDB: DefaultThresholdDB,
		ratio:       DefaultRatio,
		attackMs:    DefaultAttackMs,
		releaseMs:   DefaultReleaseMs,
	}

	c.updateThreshold()
	c.updateRatio()
	c.updateTimeConstants()

	return c
}

// Prepare recomputes the time constants for the spec's sample rate and
// clears the envelope.
func (c *Compressor) Prepare(spec core.ProcessSpec) {
	c.sampleRate = spec.SampleRate
	c.updateTimeConstants()
	c.Reset()
}

// SetThreshold sets the threshold in dB, clamped to [-60, 0].
func (c *Compressor) SetThreshold(dB float64) {
	dB = core.Clamp(dB, MinThresholdDB, MaxThresholdDB)
	if dB == c.thresholdDB {
		return
	}

	c.thresholdDB = dB
	c.updateThreshold()
}

// SetRatio sets the compression ratio, clamped to [1, 20]. A ratio of 1
// disables compression.
func (c *Compressor) SetRatio(ratio float64) {
	ratio = core.Clamp(ratio, MinRatio, MaxRatio)
	if ratio == c.ratio {
		return
	}

	c.ratio = ratio
	c.updateRatio()
}

// SetAttack sets the attack time in milliseconds, clamped to [0.1, 1000].
func (c *Compressor) SetAttack(ms float64) {
	ms = core.Clamp(ms, MinAttackMs, MaxAttackMs)
	if ms == c.attackMs {
		return
	}

	c.attackMs = ms
	c.updateTimeConstants()
}

// SetRelease sets the release time in milliseconds, clamped to [1, 5000].
func (c *Compressor) SetRelease(ms float64) {
	ms = core.Clamp(ms, MinReleaseMs, MaxReleaseMs)
	if ms == c.releaseMs {
		return
	}

	c.releaseMs = ms
	c.updateTimeConstants()
}

// Threshold returns the threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Attack returns the attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// SampleRate returns the prepared sample rate.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// Envelope returns the current envelope level (linear).
func (c *Compressor) Envelope() float64 { return c.envelope }

// GainReductionDB returns the largest gain reduction applied during the most
// recent block, as a non-negative dB value.
func (c *Compressor) GainReductionDB() float64 {
	return c.gainReductionDB.Load()
}

// Process compresses block in place.
func (c *Compressor) Process(block [][]float64) {
	frames := core.Frames(block)
	if frames == 0 {
		return
	}

	env := c.envelope
	maxReductionLog2 := 0.0

	for i := range frames {
		level := 0.0
		for _, ch := range block {
			level = math.Max(level, math.Abs(ch[i]))
		}

		if level > env {
			env = c.attackCoeff*env + (1-c.attackCoeff)*level
		} else {
			env = c.releaseCoeff*env + (1-c.releaseCoeff)*level
		}

		reductionLog2 := c.reductionLog2(env)
		if reductionLog2 <= 0 {
			continue
		}

		maxReductionLog2 = math.Max(maxReductionLog2, reductionLog2)
		gain := mathPower2(-reductionLog2)
		for _, ch := range block {
			ch[i] *= gain
		}
	}

	c.envelope = core.FlushDenormals(env)
	c.gainReductionDB.Store(maxReductionLog2 / log2Of10Div20)
}

// CalculateOutputLevel returns the steady-state output magnitude for a
// constant input magnitude, i.e. the static compression curve.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * mathPower2(-c.reductionLog2(inputMagnitude))
}

// Reset clears the envelope and the gain-reduction reading.
func (c *Compressor) Reset() {
	c.envelope = 0
	c.gainReductionDB.Store(0)
}

// reductionLog2 returns the gain reduction for envelope env in the log2
// domain, or 0 when env is at or below the threshold.
func (c *Compressor) reductionLog2(env float64) float64 {
	if c.slope <= 0 || env <= c.thresholdLin || env < minEnvelope {
		return 0
	}

	over := mathLog2(env) - c.thresholdLog2
	if over <= 0 {
		return 0
	}

	return over * c.slope
}

func (c *Compressor) updateThreshold() {
	c.thresholdLin = core.DBToLinear(c.thresholdDB)
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20
}

func (c *Compressor) updateRatio() {
	if c.ratio <= 1 {
		c.slope = 0
		return
	}

	c.slope = 1 - 1/c.ratio
}

func (c *Compressor) updateTimeConstants() {
	c.attackCoeff = core.SmoothingCoefficient(c.sampleRate, c.attackMs)
	c.releaseCoeff = core.SmoothingCoefficient(c.sampleRate, c.releaseMs)
}
