package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/filter/biquad"
)

func ExampleSection_ProcessSample() {
	s := biquad.NewSection(biquad.Coefficients{
		B0: 0.25, B1: 0.5, B2: 0.25,
		A1: -0.2, A2: 0.04,
	})

	for i := range 6 {
		var x float64
		if i == 0 {
			x = 1
		}

		fmt.Printf("y[%d] = %.6f\n", i, s.ProcessSample(x))
	}
	// Output:
	// y[0] = 0.250000
	// y[1] = 0.550000
	// y[2] = 0.350000
	// y[3] = 0.048000
	// y[4] = -0.004400
	// y[5] = -0.002800
}

func ExampleStage() {
	st := biquad.NewStage()
	st.Prepare(core.ProcessSpec{SampleRate: 48000, BlockSize: 4, Channels: 2})
	st.SetCoefficients(biquad.Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})

	block := [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}}
	st.Process(block)

	fmt.Printf("L: %.3f %.3f %.3f %.3f\n", block[0][0], block[0][1], block[0][2], block[0][3])
	fmt.Printf("R: %.3f %.3f %.3f %.3f\n", block[1][0], block[1][1], block[1][2], block[1][3])
	// Output:
	// L: 0.250 0.550 0.350 0.048
	// R: 0.000 0.250 0.550 0.350
}
