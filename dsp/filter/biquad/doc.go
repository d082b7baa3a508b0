// Package biquad provides second-order IIR filter runtime primitives.
//
// [Section] is a single-channel Direct Form II Transposed filter for offline
// use and analysis. [Stage] is the multi-channel streaming variant used in
// the effects chain: its coefficients live behind an atomic pointer so the
// control side can publish a new immutable set while audio is running, and
// the audio side picks it up at the next block without locking.
//
// Coefficient design lives in dsp/filter/design.
package biquad
