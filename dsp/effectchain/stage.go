package effectchain

import (
	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/effects"
	"github.com/cwbudde/algo-fxchain/dsp/effects/dynamics"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad"
)

// Stage is one processing step of the chain. All three methods run on the
// audio goroutine except Prepare, which is not real-time safe.
type Stage interface {
	Prepare(spec core.ProcessSpec)
	Process(block [][]float64)
	Reset()
}

var (
	_ Stage = (*effects.Gain)(nil)
	_ Stage = (*dynamics.Compressor)(nil)
	_ Stage = (*biquad.Stage)(nil)
)

// StageID names a position in the chain.
type StageID int

const (
	StageInputGain StageID = iota
	StageCompressor
	StageMakeupGain
	StageEQ1
	StageEQ2
	StageEQ3
	StageOutputGain

	numStages
)

// NumEQBands is the number of peaking EQ bands.
const NumEQBands = 3

func (id StageID) String() string {
	switch id {
	case StageInputGain:
		return "input"
	case StageCompressor:
		return "comp"
	case StageMakeupGain:
		return "makeup"
	case StageEQ1:
		return "eq1"
	case StageEQ2:
		return "eq2"
	case StageEQ3:
		return "eq3"
	case StageOutputGain:
		return "output"
	default:
		return "unknown"
	}
}

// StageIDs returns the stages in processing order.
func StageIDs() []StageID {
	ids := make([]StageID, numStages)
	for i := range ids {
		ids[i] = StageID(i)
	}

	return ids
}
