package biquad

import (
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad/internal/kernel"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section. a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity returns the pass-through section H(z) = 1.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// IsIdentity reports whether c is exactly the pass-through section.
func (c Coefficients) IsIdentity() bool {
	return c == Identity()
}

// IsStable reports whether both poles lie strictly inside the unit circle
// (stability triangle test on A1, A2).
func (c Coefficients) IsStable() bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

func (c Coefficients) kernel() kernel.Coefficients {
	return kernel.Coefficients{B0: c.B0, B1: c.B1, B2: c.B2, A1: c.A1, A2: c.A2}
}
