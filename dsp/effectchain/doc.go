// Package effectchain wires the fixed seven-stage effects chain
//
//	InputGain -> Compressor -> MakeupGain -> EQ1 -> EQ2 -> EQ3 -> OutputGain
//
// and the lock-free parameter store that feeds it.
//
// [Chain] owns the stages and processes planar blocks in place. [Params]
// holds one atomic value per user parameter; control goroutines write it
// and the audio goroutine reads it once per block through [Params.Apply].
// [Processor] combines both with the input and output level meters and is
// what an audio callback drives.
package effectchain
