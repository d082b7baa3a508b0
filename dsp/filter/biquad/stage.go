package biquad

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad/internal/kernel"
)

// Stage is a multi-channel biquad sharing one coefficient set across
// channels, with an independent delay line per channel.
//
// Coefficients are published as immutable snapshots behind an atomic
// pointer. Process loads the pointer once per block, so a block is always
// filtered with one consistent set. Process and Reset belong to the audio
// goroutine; SetCoefficients, SwapCoefficients and Coefficients may be called
// from any goroutine.
type Stage struct {
	coeffs atomic.Pointer[Coefficients]
	state  [][2]float64
	block  kernel.BlockFn
}

// NewStage returns a pass-through stage. Call Prepare before Process.
func NewStage() *Stage {
	s := &Stage{}
	id := Identity()
	s.coeffs.Store(&id)

	return s
}

// Prepare sizes the per-channel delay lines, selects the block kernel and
// clears state. Not real-time safe.
func (s *Stage) Prepare(spec core.ProcessSpec) {
	if cap(s.state) >= spec.Channels {
		s.state = s.state[:spec.Channels]
	} else {
		s.state = make([][2]float64, spec.Channels)
	}

	s.block = kernel.Select().Block
	s.Reset()
}

// SetCoefficients publishes a copy of c. The copy is the only allocation and
// happens on the caller's goroutine.
func (s *Stage) SetCoefficients(c Coefficients) {
	s.coeffs.Store(&c)
}

// SwapCoefficients adopts p as the current snapshot without copying. The
// caller must never modify *p afterwards. A nil p is ignored.
func (s *Stage) SwapCoefficients(p *Coefficients) {
	if p != nil {
		s.coeffs.Store(p)
	}
}

// Coefficients returns the current coefficient set.
func (s *Stage) Coefficients() Coefficients {
	return *s.coeffs.Load()
}

// Process filters every channel of block in place.
//
// It panics if block has a different channel count than the prepared one.
func (s *Stage) Process(block [][]float64) {
	if len(block) != len(s.state) {
		panic(fmt.Sprintf("biquad: block has %d channels, stage prepared for %d", len(block), len(s.state)))
	}

	c := s.coeffs.Load()
	if c.IsIdentity() && s.settled() {
		return
	}

	kc := c.kernel()
	for ch, buf := range block {
		st := &s.state[ch]
		st[0], st[1] = s.block(kc, st[0], st[1], buf)
		st[0] = core.FlushDenormals(st[0])
		st[1] = core.FlushDenormals(st[1])
	}
}

// Reset zeroes every delay line.
func (s *Stage) Reset() {
	for i := range s.state {
		s.state[i] = [2]float64{}
	}
}

// State returns the delay line of channel ch.
func (s *Stage) State(ch int) [2]float64 {
	return s.state[ch]
}

// settled reports whether all delay lines are zero, in which case an
// identity section leaves samples untouched.
func (s *Stage) settled() bool {
	for _, st := range s.state {
		if st[0] != 0 || st[1] != 0 {
			return false
		}
	}

	return true
}
