package biquad

import (
	"sync"

	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad/internal/kernel"
)

// Section is a single-channel biquad with coefficients and state.
type Section struct {
	Coefficients

	d0, d1 float64
}

var (
	sectionKernel     kernel.BlockFn
	sectionKernelOnce sync.Once
)

// NewSection returns a Section with the given coefficients and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters buf in place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	sectionKernelOnce.Do(func() {
		sectionKernel = kernel.Select().Block
	})

	s.d0, s.d1 = sectionKernel(s.kernel(), s.d0, s.d1, buf)
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// State returns the delay line [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a saved delay line.
func (s *Section) SetState(state [2]float64) {
	s.d0, s.d1 = state[0], state[1]
}
