package core

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is returned when a ProcessSpec cannot be used to prepare a
// processor.
var ErrInvalidSpec = errors.New("invalid process spec")

// ProcessSpec describes a prepared streaming session: the sample rate, the
// largest block that will be processed and the channel count. All three are
// fixed until the next prepare.
type ProcessSpec struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// SpecOption mutates a ProcessSpec.
type SpecOption func(*ProcessSpec)

// DefaultProcessSpec returns a stereo 48 kHz spec with 512-frame blocks.
func DefaultProcessSpec() ProcessSpec {
	return ProcessSpec{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) SpecOption {
	return func(spec *ProcessSpec) {
		if sampleRate > 0 && IsFinite(sampleRate) {
			spec.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum block size.
func WithBlockSize(blockSize int) SpecOption {
	return func(spec *ProcessSpec) {
		if blockSize > 0 {
			spec.BlockSize = blockSize
		}
	}
}

// WithChannels sets the channel count.
func WithChannels(channels int) SpecOption {
	return func(spec *ProcessSpec) {
		if channels > 0 {
			spec.Channels = channels
		}
	}
}

// ApplySpecOptions applies zero or more options to the default spec.
func ApplySpecOptions(opts ...SpecOption) ProcessSpec {
	spec := DefaultProcessSpec()
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}

	return spec
}

// Validate reports whether the spec can be prepared.
func (s ProcessSpec) Validate() error {
	if !(s.SampleRate > 0) || !IsFinite(s.SampleRate) {
		return fmt.Errorf("%w: sample rate must be positive and finite: %f", ErrInvalidSpec, s.SampleRate)
	}

	if s.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be positive: %d", ErrInvalidSpec, s.BlockSize)
	}

	if s.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be positive: %d", ErrInvalidSpec, s.Channels)
	}

	return nil
}

// Nyquist returns half the sample rate.
func (s ProcessSpec) Nyquist() float64 {
	return s.SampleRate / 2
}
