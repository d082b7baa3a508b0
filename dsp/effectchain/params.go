package effectchain

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad"
	"github.com/cwbudde/algo-fxchain/dsp/filter/design"
)

// ErrUnknownParam is returned by Set for an unregistered parameter ID.
var ErrUnknownParam = errors.New("effectchain: unknown parameter")

// ParamID identifies a user parameter, e.g. "comp.ratio" or "eq2.freqHz".
type ParamID string

const (
	ParamInputGainDB  ParamID = "input.gainDB"
	ParamThresholdDB  ParamID = "comp.thresholdDB"
	ParamRatio        ParamID = "comp.ratio"
	ParamAttackMs     ParamID = "comp.attackMs"
	ParamReleaseMs    ParamID = "comp.releaseMs"
	ParamMakeupGainDB ParamID = "makeup.gainDB"
	ParamOutputGainDB ParamID = "output.gainDB"
)

// EQFrequencyParam returns the frequency parameter ID of band (0-based).
func EQFrequencyParam(band int) ParamID { return ParamID(fmt.Sprintf("eq%d.freqHz", band+1)) }

// EQGainParam returns the gain parameter ID of band (0-based).
func EQGainParam(band int) ParamID { return ParamID(fmt.Sprintf("eq%d.gainDB", band+1)) }

// EQQParam returns the Q parameter ID of band (0-based).
func EQQParam(band int) ParamID { return ParamID(fmt.Sprintf("eq%d.q", band+1)) }

// Descriptor describes one user parameter.
type Descriptor struct {
	ID      ParamID `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Unit    string  `json:"unit" yaml:"unit"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Default float64 `json:"default" yaml:"default"`
}

// Clamp limits v to the descriptor's range. NaN maps to the default.
func (d Descriptor) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return d.Default
	}

	return core.Clamp(v, d.Min, d.Max)
}

// slot indexes the value array of Params.
type slot int

const (
	slotInputGain slot = iota
	slotThreshold
	slotRatio
	slotAttack
	slotRelease
	slotMakeup
	// Three slots (freq, gain, q) per band.
	slotEQ
	slotOutputGain = slotEQ + 3*NumEQBands

	numSlots = slotOutputGain + 1
)

func eqSlot(band int) slot { return slotEQ + slot(3*band) }

var (
	descriptors = buildDescriptors()
	slotByID    = func() map[ParamID]slot {
		m := make(map[ParamID]slot, len(descriptors))
		for i, d := range descriptors {
			m[d.ID] = slot(i)
		}
		return m
	}()
)

func buildDescriptors() [numSlots]Descriptor {
	var d [numSlots]Descriptor

	d[slotInputGain] = Descriptor{ID: ParamInputGainDB, Name: "Input Gain", Unit: "dB", Min: -24, Max: 24, Default: 0}
	d[slotThreshold] = Descriptor{ID: ParamThresholdDB, Name: "Threshold", Unit: "dB", Min: -60, Max: 0, Default: -18}
	d[slotRatio] = Descriptor{ID: ParamRatio, Name: "Ratio", Unit: ":1", Min: 1, Max: 20, Default: 4}
	d[slotAttack] = Descriptor{ID: ParamAttackMs, Name: "Attack", Unit: "ms", Min: 1, Max: 200, Default: 20}
	d[slotRelease] = Descriptor{ID: ParamReleaseMs, Name: "Release", Unit: "ms", Min: 10, Max: 500, Default: 100}
	d[slotMakeup] = Descriptor{ID: ParamMakeupGainDB, Name: "Makeup Gain", Unit: "dB", Min: -12, Max: 24, Default: 0}

	bands := DefaultEQBands()
	for b := range NumEQBands {
		s := eqSlot(b)
		n := b + 1
		d[s] = Descriptor{ID: EQFrequencyParam(b), Name: fmt.Sprintf("EQ%d Frequency", n), Unit: "Hz", Min: 20, Max: 20000, Default: bands[b].FreqHz}
		d[s+1] = Descriptor{ID: EQGainParam(b), Name: fmt.Sprintf("EQ%d Gain", n), Unit: "dB", Min: -18, Max: 18, Default: bands[b].GainDB}
		d[s+2] = Descriptor{ID: EQQParam(b), Name: fmt.Sprintf("EQ%d Q", n), Unit: "", Min: 0.1, Max: 10, Default: bands[b].Q}
	}

	d[slotOutputGain] = Descriptor{ID: ParamOutputGainDB, Name: "Output Gain", Unit: "dB", Min: -24, Max: 24, Default: 0}

	return d
}

// Descriptors returns every parameter in chain order.
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), descriptors[:]...)
}

// Lookup returns the descriptor of id.
func Lookup(id ParamID) (Descriptor, bool) {
	s, ok := slotByID[id]
	if !ok {
		return Descriptor{}, false
	}

	return descriptors[s], true
}

// Values is a point-in-time copy of every parameter. Values read from
// different parameters may straddle a concurrent update.
type Values struct {
	InputGainDB  float64            `json:"inputGainDB"`
	ThresholdDB  float64            `json:"thresholdDB"`
	Ratio        float64            `json:"ratio"`
	AttackMs     float64            `json:"attackMs"`
	ReleaseMs    float64            `json:"releaseMs"`
	MakeupGainDB float64            `json:"makeupGainDB"`
	EQ           [NumEQBands]EQBand `json:"eq"`
	OutputGainDB float64            `json:"outputGainDB"`
}

// Map returns the values keyed by parameter ID.
func (v Values) Map() map[ParamID]float64 {
	m := map[ParamID]float64{
		ParamInputGainDB:  v.InputGainDB,
		ParamThresholdDB:  v.ThresholdDB,
		ParamRatio:        v.Ratio,
		ParamAttackMs:     v.AttackMs,
		ParamReleaseMs:    v.ReleaseMs,
		ParamMakeupGainDB: v.MakeupGainDB,
		ParamOutputGainDB: v.OutputGainDB,
	}

	for b, band := range v.EQ {
		m[EQFrequencyParam(b)] = band.FreqHz
		m[EQGainParam(b)] = band.GainDB
		m[EQQParam(b)] = band.Q
	}

	return m
}

// eqSnapshot is an immutable EQ design published by the control side.
type eqSnapshot struct {
	band       EQBand
	sampleRate float64
	coeffs     biquad.Coefficients
}

// ParamsOption configures Params.
type ParamsOption func(*Params)

// WithObserver registers fn to be called on the setting goroutine after
// every accepted update with the clamped value.
func WithObserver(fn func(id ParamID, value float64)) ParamsOption {
	return func(p *Params) {
		p.observer = fn
	}
}

// Params is the lock-free parameter store.
//
// Setters may be called from any goroutine; each value is published with a
// single atomic store. EQ setters additionally design the band's
// coefficients on the calling goroutine and publish them as an immutable
// snapshot. Apply is the only reader on the audio goroutine.
type Params struct {
	values     [numSlots]core.AtomicFloat64
	sampleRate core.AtomicFloat64
	eq         [NumEQBands]atomic.Pointer[eqSnapshot]
	observer   func(ParamID, float64)
}

// NewParams returns a store holding the default values.
func NewParams(opts ...ParamsOption) *Params {
	p := &Params{}
	for i, d := range descriptors {
		p.values[i].Store(d.Default)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// SetInputGainDB sets the input gain, clamped to [-24, 24] dB.
func (p *Params) SetInputGainDB(db float64) { p.set(slotInputGain, db) }

// SetThresholdDB sets the compressor threshold, clamped to [-60, 0] dB.
func (p *Params) SetThresholdDB(db float64) { p.set(slotThreshold, db) }

// SetRatio sets the compression ratio, clamped to [1, 20].
func (p *Params) SetRatio(ratio float64) { p.set(slotRatio, ratio) }

// SetAttackMs sets the compressor attack, clamped to [1, 200] ms.
func (p *Params) SetAttackMs(ms float64) { p.set(slotAttack, ms) }

// SetReleaseMs sets the compressor release, clamped to [10, 500] ms.
func (p *Params) SetReleaseMs(ms float64) { p.set(slotRelease, ms) }

// SetMakeupGainDB sets the makeup gain, clamped to [-12, 24] dB.
func (p *Params) SetMakeupGainDB(db float64) { p.set(slotMakeup, db) }

// SetOutputGainDB sets the output gain, clamped to [-24, 24] dB.
func (p *Params) SetOutputGainDB(db float64) { p.set(slotOutputGain, db) }

// SetEQFrequency sets the centre frequency of band, clamped to [20, 20000] Hz.
func (p *Params) SetEQFrequency(band int, hz float64) error {
	return p.setEQ(band, 0, hz)
}

// SetEQGainDB sets the gain of band, clamped to [-18, 18] dB.
func (p *Params) SetEQGainDB(band int, db float64) error {
	return p.setEQ(band, 1, db)
}

// SetEQQ sets the quality factor of band, clamped to [0.1, 10].
func (p *Params) SetEQQ(band int, q float64) error {
	return p.setEQ(band, 2, q)
}

// Set updates a parameter by ID.
func (p *Params) Set(id ParamID, value float64) error {
	s, ok := slotByID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}

	if s >= slotEQ && s < slotOutputGain {
		off := int(s - slotEQ)
		return p.setEQ(off/3, off%3, value)
	}

	p.set(s, value)

	return nil
}

// Get returns the current value of id.
func (p *Params) Get(id ParamID) (float64, error) {
	s, ok := slotByID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}

	return p.values[s].Load(), nil
}

// Values returns a copy of all parameters.
func (p *Params) Values() Values {
	v := Values{
		InputGainDB:  p.values[slotInputGain].Load(),
		ThresholdDB:  p.values[slotThreshold].Load(),
		Ratio:        p.values[slotRatio].Load(),
		AttackMs:     p.values[slotAttack].Load(),
		ReleaseMs:    p.values[slotRelease].Load(),
		MakeupGainDB: p.values[slotMakeup].Load(),
		OutputGainDB: p.values[slotOutputGain].Load(),
	}

	for b := range NumEQBands {
		v.EQ[b] = p.band(b)
	}

	return v
}

// Descriptors returns every parameter in chain order.
func (p *Params) Descriptors() []Descriptor {
	return Descriptors()
}

// Apply pushes the current parameters into c. It is the per-block pickup of
// the audio goroutine: it only loads atomics, updates stage targets and
// swaps in EQ snapshots designed for c's prepared sample rate. It never
// blocks or allocates.
func (p *Params) Apply(c *Chain) {
	c.inputGain.SetGainDecibels(p.values[slotInputGain].Load())
	c.compressor.SetThreshold(p.values[slotThreshold].Load())
	c.compressor.SetRatio(p.values[slotRatio].Load())
	c.compressor.SetAttack(p.values[slotAttack].Load())
	c.compressor.SetRelease(p.values[slotRelease].Load())
	c.makeupGain.SetGainDecibels(p.values[slotMakeup].Load())
	c.outputGain.SetGainDecibels(p.values[slotOutputGain].Load())

	for b := range NumEQBands {
		c.adoptEQ(b, p.eq[b].Load())
	}
}

// Configure copies the current parameters into c through its control API.
// Use it before Prepare; it may allocate.
func (p *Params) Configure(c *Chain) {
	v := p.Values()

	c.inputGain.SetGainDecibels(v.InputGainDB)
	c.compressor.SetThreshold(v.ThresholdDB)
	c.compressor.SetRatio(v.Ratio)
	c.compressor.SetAttack(v.AttackMs)
	c.compressor.SetRelease(v.ReleaseMs)
	c.makeupGain.SetGainDecibels(v.MakeupGainDB)
	c.outputGain.SetGainDecibels(v.OutputGainDB)

	for b, band := range v.EQ {
		c.setBand(b, band)
	}
}

// SetSampleRate publishes the rate EQ snapshots are designed for and
// redesigns every band. Snapshots for any other rate are ignored by Apply.
func (p *Params) SetSampleRate(sampleRate float64) {
	p.sampleRate.Store(sampleRate)
	for b := range NumEQBands {
		p.publishEQ(b)
	}
}

// SampleRate returns the published design sample rate, 0 if none.
func (p *Params) SampleRate() float64 {
	return p.sampleRate.Load()
}

func (p *Params) set(s slot, value float64) {
	value = descriptors[s].Clamp(value)
	p.values[s].Store(value)
	p.notify(s, value)
}

func (p *Params) setEQ(band, field int, value float64) error {
	if band < 0 || band >= NumEQBands {
		return fmt.Errorf("%w: %d", ErrBandOutOfRange, band)
	}

	s := eqSlot(band) + slot(field)
	value = descriptors[s].Clamp(value)
	p.values[s].Store(value)
	p.publishEQ(band)
	p.notify(s, value)

	return nil
}

func (p *Params) band(b int) EQBand {
	s := eqSlot(b)

	return EQBand{
		FreqHz: p.values[s].Load(),
		GainDB: p.values[s+1].Load(),
		Q:      p.values[s+2].Load(),
	}
}

// publishEQ designs band for the published sample rate and stores the
// snapshot. A concurrent setter may store a design for older values in
// between, so the loop re-checks after every store until the stored
// snapshot matches what is current.
func (p *Params) publishEQ(band int) {
	for {
		sr := p.sampleRate.Load()
		if !(sr > 0) {
			return
		}

		b := p.band(band)
		snap := &eqSnapshot{
			band:       b,
			sampleRate: sr,
			coeffs:     design.PeakingCoefficients(sr, b.FreqHz, b.Q, core.DBToLinear(b.GainDB)),
		}
		p.eq[band].Store(snap)

		if p.sampleRate.Load() == sr && p.band(band) == b {
			return
		}
	}
}

func (p *Params) notify(s slot, value float64) {
	if p.observer != nil {
		p.observer(descriptors[s].ID, value)
	}
}
