package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/core"
)

func ExampleApplySpecOptions() {
	spec := core.ApplySpecOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d channels=%d\n", spec.SampleRate, spec.BlockSize, spec.Channels)

	// Output:
	// sampleRate=44100 blockSize=256 channels=2
}

func ExampleSmoothingCoefficient() {
	fmt.Printf("%.6f\n", core.SmoothingCoefficient(48000, 10))
	fmt.Printf("%.1f\n", core.SmoothingCoefficient(48000, 0))

	// Output:
	// 0.997919
	// 0.0
}
