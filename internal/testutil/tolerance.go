package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireBlockNearlyEqual fails t if the blocks differ in shape or if any
// sample pair differs by more than eps.
func RequireBlockNearlyEqual(t *testing.T, got, want [][]float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("channel mismatch: got %d, want %d", len(got), len(want))
	}
	for ch := range got {
		if len(got[ch]) != len(want[ch]) {
			t.Fatalf("channel %d length mismatch: got %d, want %d", ch, len(got[ch]), len(want[ch]))
		}
		for i := range got[ch] {
			diff := math.Abs(got[ch][i] - want[ch][i])
			if diff > eps {
				t.Fatalf("ch %d index %d: got %v, want %v (diff %v > eps %v)", ch, i, got[ch][i], want[ch][i], diff, eps)
			}
		}
	}
}

// RequireBlockEqual fails t unless the blocks are bit-for-bit identical.
func RequireBlockEqual(t *testing.T, got, want [][]float64) {
	t.Helper()
	RequireBlockNearlyEqual(t, got, want, 0)
}

// RequireFinite fails t if any sample is NaN or Inf.
func RequireFinite(t *testing.T, block [][]float64) {
	t.Helper()
	for ch := range block {
		for i, v := range block[ch] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("ch %d index %d: non-finite value %v", ch, i, v)
			}
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}

// RMS returns the root-mean-square of all samples in the block.
func RMS(block [][]float64) float64 {
	sum := 0.0
	n := 0
	for ch := range block {
		for _, v := range block[ch] {
			sum += v * v
		}
		n += len(block[ch])
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
