// Package effects provides the smoothed gain stage used at the input, makeup
// and output positions of the chain.
//
// The compressor lives in the dynamics subpackage. Stages process planar
// blocks in place, allocate only in Prepare and are owned by the audio
// goroutine.
package effects
