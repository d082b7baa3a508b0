// Package level turns audio blocks into normalized meter readings.
//
// A reading is the block RMS in dB, floored at [FloorDB] and mapped linearly
// so that FloorDB reads 0 and 0 dBFS reads 1.
package level

import (
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// FloorDB is the level that reads as 0.
const FloorDB = -60.0

// Compute returns the normalized RMS level of every sample in block.
// An empty block reads 0.
func Compute(block [][]float64) float64 {
	sum := 0.0
	n := 0
	for _, ch := range block {
		for _, v := range ch {
			sum += v * v
		}
		n += len(ch)
	}

	if n == 0 {
		return 0
	}

	return FromRMS(math.Sqrt(sum / float64(n)))
}

// ComputeChannelMax returns the reading of the loudest channel, each channel
// measured on its own.
func ComputeChannelMax(block [][]float64) float64 {
	loudest := 0.0
	for _, ch := range block {
		loudest = math.Max(loudest, Compute([][]float64{ch}))
	}

	return loudest
}

// FromRMS maps a linear RMS value to the [0, 1] meter scale.
func FromRMS(rms float64) float64 {
	db := core.LinearToDBFloor(rms, FloorDB)
	return core.Clamp((db-FloorDB)/-FloorDB, 0, 1)
}

// ToDB maps a meter reading back to dB. A reading of 0 returns FloorDB.
func ToDB(level float64) float64 {
	return FloorDB + core.Clamp(level, 0, 1)*-FloorDB
}

// Option configures a Meter.
type Option func(*Meter)

// WithChannelMax makes the meter report the loudest channel instead of the
// RMS over all channels.
func WithChannelMax() Option {
	return func(m *Meter) {
		m.channelMax = true
	}
}

// Meter measures blocks on the audio goroutine and publishes the latest
// reading for other goroutines.
type Meter struct {
	channelMax bool
	squares    []float64
	level      core.AtomicFloat64
}

// NewMeter returns a meter reading 0.
func NewMeter(opts ...Option) *Meter {
	m := &Meter{}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Prepare sizes the scratch buffer for blocks of up to spec.BlockSize frames
// and clears the reading. Not real-time safe.
func (m *Meter) Prepare(spec core.ProcessSpec) {
	m.squares = core.EnsureLen(m.squares, spec.BlockSize)
	m.Reset()
}

// Process measures block, publishes the reading and returns it. block is
// not modified.
func (m *Meter) Process(block [][]float64) float64 {
	var v float64
	if m.channelMax {
		for _, ch := range block {
			v = math.Max(v, FromRMS(m.rms([][]float64{ch})))
		}
	} else {
		v = FromRMS(m.rms(block))
	}

	m.level.Store(v)

	return v
}

// Level returns the most recent reading. Safe for concurrent use.
func (m *Meter) Level() float64 {
	return m.level.Load()
}

// Reset sets the reading to 0.
func (m *Meter) Reset() {
	m.level.Store(0)
}

func (m *Meter) rms(block [][]float64) float64 {
	sum := 0.0
	n := 0
	for _, ch := range block {
		sum += m.sumSquares(ch)
		n += len(ch)
	}

	if n == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(n))
}

// sumSquares squares x into the prepared scratch chunk by chunk.
func (m *Meter) sumSquares(x []float64) float64 {
	sum := 0.0
	if len(m.squares) == 0 {
		for _, v := range x {
			sum += v * v
		}
		return sum
	}

	for len(x) > 0 {
		k := min(len(x), len(m.squares))
		sq := m.squares[:k]
		vecmath.MulBlock(sq, x[:k], x[:k])
		for _, s := range sq {
			sum += s
		}
		x = x[k:]
	}

	return sum
}
