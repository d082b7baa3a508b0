package audio

import (
	"errors"

	"github.com/cwbudde/algo-fxchain/dsp/core"
)

// ErrNoBackend is returned by RunLive in builds without the portaudio tag.
var ErrNoBackend = errors.New("audio: built without a live audio backend (use -tags portaudio)")

// LiveConfig describes the duplex stream.
type LiveConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// duplex moves one interleaved callback buffer through the processor. It
// belongs to the audio callback and never allocates.
type duplex struct {
	block [][]float64
	view  [][]float64
	proc  processFunc
}

type processFunc func(block [][]float64)

func newDuplex(channels, blockSize int, proc processFunc) *duplex {
	block := make([][]float64, channels)
	for ch := range block {
		block[ch] = make([]float64, blockSize)
	}

	return &duplex{block: block, view: make([][]float64, channels), proc: proc}
}

// process reads in, runs the processor and writes out. Frames beyond the
// prepared block size are processed in several passes.
func (d *duplex) process(in, out []float32) {
	channels := len(d.block)
	frames := len(out) / channels

	for start := 0; start < frames; start += len(d.block[0]) {
		n := min(len(d.block[0]), frames-start)
		for ch := range d.view {
			d.view[ch] = d.block[ch][:n]
		}

		lo, hi := start*channels, (start+n)*channels
		if len(in) >= hi {
			core.Deinterleave(d.view, in[lo:hi])
		} else {
			for _, ch := range d.view {
				clear(ch)
			}
		}

		d.proc(d.view)
		core.Interleave(out[lo:hi], d.view)
	}
}
