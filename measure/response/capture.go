package response

// ProcessFunc processes a planar block in place.
type ProcessFunc func(block [][]float64)

// Capture feeds an impulse of the given amplitude through process in blocks
// of blockSize frames and returns length samples of channel 0, divided by
// amplitude. A small amplitude keeps level-dependent stages such as a
// compressor in their linear region.
func Capture(process ProcessFunc, channels, length, blockSize int, amplitude float64) []float64 {
	if channels <= 0 || length <= 0 || blockSize <= 0 || amplitude == 0 {
		return nil
	}

	ir := make([]float64, length)
	block := make([][]float64, channels)
	for ch := range block {
		block[ch] = make([]float64, blockSize)
	}

	for start := 0; start < length; start += blockSize {
		n := min(blockSize, length-start)
		for ch := range block {
			block[ch] = block[ch][:blockSize]
			clear(block[ch])
			if start == 0 {
				block[ch][0] = amplitude
			}
			block[ch] = block[ch][:n]
		}

		process(block)

		for i, v := range block[0] {
			ir[start+i] = v / amplitude
		}
	}

	return ir
}
