// Package dynamics provides the stereo-linked downward compressor used by
// the effects chain.
//
// The compressor follows the peak of the loudest channel with an
// attack/release envelope and applies a hard-knee gain reduction of
// (envelope - threshold) * (1 - 1/ratio) dB to every channel alike, so the
// stereo image does not shift while it works.
package dynamics
