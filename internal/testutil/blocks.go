// Package testutil holds deterministic planar test blocks and comparison
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns a channels x frames block carrying the same sine on every
// channel, starting at phase 0.
func Sine(channels, frames int, freqHz, sampleRate, amplitude float64) [][]float64 {
	block := newBlock(channels, frames)
	step := 2 * math.Pi * freqHz / sampleRate
	for ch := range block {
		for i := range block[ch] {
			block[ch][i] = amplitude * math.Sin(step*float64(i))
		}
	}

	return block
}

// Noise returns uniform white noise in [-amplitude, amplitude). Each channel
// draws from the same seeded source so results are reproducible.
func Noise(seed int64, channels, frames int, amplitude float64) [][]float64 {
	block := newBlock(channels, frames)
	rng := rand.New(rand.NewSource(seed))
	for ch := range block {
		for i := range block[ch] {
			block[ch][i] = (rng.Float64()*2 - 1) * amplitude
		}
	}

	return block
}

// Impulse returns a block with value at frame pos on every channel.
func Impulse(channels, frames, pos int, value float64) [][]float64 {
	block := newBlock(channels, frames)
	if pos < 0 || pos >= frames {
		return block
	}

	for ch := range block {
		block[ch][pos] = value
	}

	return block
}

// Constant returns a block filled with value.
func Constant(channels, frames int, value float64) [][]float64 {
	block := newBlock(channels, frames)
	for ch := range block {
		for i := range block[ch] {
			block[ch][i] = value
		}
	}

	return block
}

// Clone deep-copies a block.
func Clone(block [][]float64) [][]float64 {
	out := make([][]float64, len(block))
	for ch := range block {
		out[ch] = append([]float64(nil), block[ch]...)
	}

	return out
}

func newBlock(channels, frames int) [][]float64 {
	block := make([][]float64, channels)
	for ch := range block {
		block[ch] = make([]float64, frames)
	}

	return block
}
