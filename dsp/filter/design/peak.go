package design

import (
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad"
)

const (
	// MinFreqHz is the lowest centre frequency a section is designed for.
	MinFreqHz = 1.0

	// MinQ is the smallest accepted quality factor.
	MinQ = 1e-3

	// nyquistMargin keeps the centre frequency a relative epsilon below
	// Nyquist, where sin(w0) would vanish.
	nyquistMargin = 1e-4

	defaultQ = 1 / math.Sqrt2
)

// PeakingCoefficients designs a peaking EQ section centred on freqHz with
// quality factor q. linearGain is the amplitude gain at the centre
// frequency, so 2 boosts by about 6 dB and 1 yields the identity section.
//
// The cookbook amplitude A is sqrt(linearGain), which matches the usual
// A = 10^(gainDB/40) formulation.
func PeakingCoefficients(sampleRate, freqHz, q, linearGain float64) biquad.Coefficients {
	if !(linearGain > 0) || math.IsInf(linearGain, 0) {
		linearGain = 1
	}

	if linearGain == 1 {
		return biquad.Identity()
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return biquad.Identity()
	}

	w0 := 2 * math.Pi * clampFrequency(freqHz, sampleRate) / sampleRate
	q = clampQ(q)

	a := math.Sqrt(linearGain)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cw
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cw
	a2 := 1 - alpha/a

	return normalize(b0, b1, b2, a0, a1, a2)
}

// Peak designs a peaking EQ section with gain in dB.
func Peak(freqHz, gainDB, q, sampleRate float64) biquad.Coefficients {
	return PeakingCoefficients(sampleRate, freqHz, q, core.DBToLinear(gainDB))
}

func clampFrequency(freqHz, sampleRate float64) float64 {
	maxHz := sampleRate / 2 * (1 - nyquistMargin)
	if math.IsNaN(freqHz) {
		return math.Min(1000, maxHz)
	}

	return core.Clamp(freqHz, math.Min(MinFreqHz, maxHz), maxHz)
}

func clampQ(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return math.Max(q, MinQ)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || !core.IsFinite(a0) {
		return biquad.Identity()
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
