package core

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 that can be loaded and stored atomically from
// different goroutines. The zero value holds 0.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns an AtomicFloat64 holding v.
func NewAtomicFloat64(v float64) *AtomicFloat64 {
	a := &AtomicFloat64{}
	a.Store(v)

	return a
}

// Load returns the current value.
func (a *AtomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

// Store sets the value.
func (a *AtomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

// Swap stores v and returns the previous value.
func (a *AtomicFloat64) Swap(v float64) float64 {
	return math.Float64frombits(a.bits.Swap(math.Float64bits(v)))
}
