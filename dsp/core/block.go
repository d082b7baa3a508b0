package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// NewBlock allocates a planar block of channels x frames zeroed samples.
func NewBlock(channels, frames int) [][]float64 {
	if channels <= 0 {
		return nil
	}

	if frames < 0 {
		frames = 0
	}

	backing := make([]float64, channels*frames)
	block := make([][]float64, channels)
	for ch := range block {
		block[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}

	return block
}

// Frames returns the frame count of a planar block, taken from its first
// channel. An empty block has zero frames.
func Frames(block [][]float64) int {
	if len(block) == 0 {
		return 0
	}

	return len(block[0])
}

// ZeroBlock clears every channel of block.
func ZeroBlock(block [][]float64) {
	for _, ch := range block {
		Zero(ch)
	}
}

// CopyBlock copies src into dst channel by channel and returns the number of
// frames copied, which is the smaller of the two frame counts.
func CopyBlock(dst, src [][]float64) int {
	channels := min(len(dst), len(src))
	if channels == 0 {
		return 0
	}

	n := 0
	for ch := range channels {
		n = copy(dst[ch], src[ch])
	}

	return n
}

// Deinterleave splits interleaved samples into the planar block dst. The
// number of frames written is returned; extra frames in src are ignored.
func Deinterleave[T ~float32 | ~float64](dst [][]float64, src []T) int {
	channels := len(dst)
	if channels == 0 {
		return 0
	}

	frames := min(len(src)/channels, Frames(dst))
	for i := range frames {
		base := i * channels
		for ch := range channels {
			dst[ch][i] = float64(src[base+ch])
		}
	}

	return frames
}

// Interleave writes the planar block src into dst as interleaved samples and
// returns the number of frames written.
func Interleave[T ~float32 | ~float64](dst []T, src [][]float64) int {
	channels := len(src)
	if channels == 0 {
		return 0
	}

	frames := min(len(dst)/channels, Frames(src))
	for i := range frames {
		base := i * channels
		for ch := range channels {
			dst[base+ch] = T(src[ch][i])
		}
	}

	return frames
}
