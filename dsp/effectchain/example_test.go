package effectchain_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

func ExampleProcessor() {
	p := effectchain.NewProcessor()
	if err := p.Prepare(48000, 256, 2); err != nil {
		panic(err)
	}

	_ = p.Params().Set(effectchain.ParamRatio, 50)
	ratio, _ := p.Params().Get(effectchain.ParamRatio)
	fmt.Println("ratio:", ratio)

	block := [][]float64{make([]float64, 256), make([]float64, 256)}
	for i := range block[0] {
		block[0][i] = 0.05
		block[1][i] = -0.05
	}
	p.Process(block)

	fmt.Printf("out: %.2f %.2f\n", block[0][255], block[1][255])
	fmt.Println("blocks:", p.Blocks())
	// Output:
	// ratio: 20
	// out: 0.05 -0.05
	// blocks: 1
}

func ExampleDescriptors() {
	for _, d := range effectchain.Descriptors()[:3] {
		fmt.Printf("%s [%g, %g] %s\n", d.ID, d.Min, d.Max, d.Unit)
	}
	// Output:
	// input.gainDB [-24, 24] dB
	// comp.thresholdDB [-60, 0] dB
	// comp.ratio [1, 20] :1
}
