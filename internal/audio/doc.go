// Package audio connects a Processor to the outside world: WAV files for
// offline rendering and the default portaudio duplex stream for live use.
//
// The live backend needs cgo and the portaudio library and is only built
// with the portaudio build tag.
package audio
