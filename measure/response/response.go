// Package response measures magnitude responses from impulse responses.
//
// The impulse response is zero-padded to a power of two and transformed with
// algo-fft; bins from DC to Nyquist are reported in dB.
package response

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrEmptyImpulse is returned for an empty impulse response.
	ErrEmptyImpulse = errors.New("response: empty impulse response")

	// ErrSampleRate is returned for a non-positive or non-finite sample rate.
	ErrSampleRate = errors.New("response: invalid sample rate")
)

// minMagnitude keeps log10 finite for bins with no energy (-300 dB).
const minMagnitude = 1e-15

// Point is the magnitude of one frequency bin.
type Point struct {
	FreqHz      float64 `json:"freqHz"`
	MagnitudeDB float64 `json:"magnitudeDB"`
}

// Response is a magnitude response from DC to Nyquist.
type Response struct {
	SampleRate float64 `json:"sampleRate"`
	FFTSize    int     `json:"fftSize"`
	Points     []Point `json:"points"`
}

// Analyze computes the magnitude response of ir. The FFT size is the next
// power of two of len(ir), at least minSize.
func Analyze(ir []float64, sampleRate float64, minSize int) (Response, error) {
	if len(ir) == 0 {
		return Response{}, ErrEmptyImpulse
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return Response{}, fmt.Errorf("%w: %f", ErrSampleRate, sampleRate)
	}

	size := nextPowerOf2(max(len(ir), minSize))

	in := make([]complex128, size)
	for i, v := range ir {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Response{}, fmt.Errorf("response: fft plan of size %d: %w", size, err)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return Response{}, fmt.Errorf("response: forward fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := range bins {
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	resp := Response{
		SampleRate: sampleRate,
		FFTSize:    size,
		Points:     make([]Point, bins),
	}

	binHz := sampleRate / float64(size)
	for k, m := range mag {
		resp.Points[k] = Point{
			FreqHz:      float64(k) * binHz,
			MagnitudeDB: 20 * math.Log10(math.Max(m, minMagnitude)),
		}
	}

	return resp, nil
}

// At returns the magnitude at freqHz, linearly interpolated between the two
// nearest bins. Frequencies outside [0, Nyquist] return the edge bins.
func (r Response) At(freqHz float64) float64 {
	if len(r.Points) == 0 {
		return math.Inf(-1)
	}

	i := sort.Search(len(r.Points), func(i int) bool {
		return r.Points[i].FreqHz >= freqHz
	})

	switch {
	case i == 0:
		return r.Points[0].MagnitudeDB
	case i >= len(r.Points):
		return r.Points[len(r.Points)-1].MagnitudeDB
	}

	lo, hi := r.Points[i-1], r.Points[i]
	t := (freqHz - lo.FreqHz) / (hi.FreqHz - lo.FreqHz)

	return lo.MagnitudeDB + t*(hi.MagnitudeDB-lo.MagnitudeDB)
}

// Peak returns the bin with the largest magnitude.
func (r Response) Peak() Point {
	var best Point
	for i, p := range r.Points {
		if i == 0 || p.MagnitudeDB > best.MagnitudeDB {
			best = p
		}
	}

	return best
}

// Resample returns n points log-spaced between fromHz and toHz, each
// interpolated with At. It is meant for printing.
func (r Response) Resample(n int, fromHz, toHz float64) []Point {
	if n <= 0 || !(fromHz > 0) || !(toHz > fromHz) {
		return nil
	}

	points := make([]Point, n)
	ratio := math.Log(toHz / fromHz)
	for i := range points {
		f := fromHz
		if n > 1 {
			f = fromHz * math.Exp(ratio*float64(i)/float64(n-1))
		}
		points[i] = Point{FreqHz: f, MagnitudeDB: r.At(f)}
	}

	return points
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
