package core

import "math"

// SmoothingCoefficient returns the one-pole coefficient exp(-1/(fs*t)) for a
// time constant of timeMs milliseconds at sampleRate.
//
// A coefficient c is used as y = c*y + (1-c)*x, so after timeMs the output
// has covered 1-1/e (about 63%) of a step. timeMs <= 0 means instantaneous
// and yields 0, as does an invalid sample rate.
func SmoothingCoefficient(sampleRate, timeMs float64) float64 {
	if !(timeMs > 0) || !(sampleRate > 0) || !IsFinite(sampleRate) || math.IsInf(timeMs, 0) {
		return 0
	}

	return math.Exp(-1 / (sampleRate * timeMs / 1000))
}
