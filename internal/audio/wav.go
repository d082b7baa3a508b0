package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

const pcmFormat = 1

// RenderStats summarizes an offline render.
type RenderStats struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Blocks     int

	// Loudest meter readings seen, in [0, 1].
	PeakInputLevel  float64
	PeakOutputLevel float64
	MaxReductionDB  float64
}

// RenderFile processes the WAV file at inPath into outPath, keeping its
// sample rate, channel count and bit depth.
func RenderFile(ctx context.Context, proc *effectchain.Processor, inPath, outPath string, blockSize int, log logrus.FieldLogger) (RenderStats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return RenderStats{}, err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return RenderStats{}, err
	}

	stats, err := Render(ctx, proc, in, out, blockSize, log)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = cerr
	}

	return stats, err
}

// Render streams WAV data from in through proc into out in blocks of
// blockSize frames. proc is prepared for the file's format and released
// when done.
func Render(ctx context.Context, proc *effectchain.Processor, in io.ReadSeeker, out io.WriteSeeker, blockSize int, log logrus.FieldLogger) (RenderStats, error) {
	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return RenderStats{}, ErrInvalidWAV
	}

	stats := RenderStats{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	if dec.WavAudioFormat != pcmFormat || !supportedBitDepth(stats.BitDepth) {
		return stats, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedBitDepth, dec.WavAudioFormat, stats.BitDepth)
	}

	session, err := Open(proc, float64(stats.SampleRate), blockSize, stats.Channels, log)
	if err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}
	defer session.Close()

	enc := wav.NewEncoder(out, stats.SampleRate, stats.BitDepth, stats.Channels, pcmFormat)

	format := &audio.Format{NumChannels: stats.Channels, SampleRate: stats.SampleRate}
	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, blockSize*stats.Channels),
		SourceBitDepth: stats.BitDepth,
	}
	block := core.NewBlock(stats.Channels, blockSize)
	view := make([][]float64, stats.Channels)
	scale := fullScale(stats.BitDepth)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, err := dec.PCMBuffer(buf)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return stats, fmt.Errorf("read pcm: %w", err)
		}
		if n == 0 {
			break
		}

		frames := n / stats.Channels
		data := buf.Data[:frames*stats.Channels]
		for ch := range view {
			view[ch] = block[ch][:frames]
		}

		intsToBlock(view, data, scale)
		proc.Process(view)
		blockToInts(data, view, scale)

		if err := enc.Write(&audio.IntBuffer{Format: format, Data: data, SourceBitDepth: stats.BitDepth}); err != nil {
			return stats, fmt.Errorf("write pcm: %w", err)
		}

		stats.Frames += frames
		stats.Blocks++
		stats.PeakInputLevel = math.Max(stats.PeakInputLevel, proc.InputLevel())
		stats.PeakOutputLevel = math.Max(stats.PeakOutputLevel, proc.OutputLevel())
		stats.MaxReductionDB = math.Max(stats.MaxReductionDB, proc.GainReductionDB())

		if eof {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return stats, fmt.Errorf("finish wav: %w", err)
	}

	session.Logger().WithFields(logrus.Fields{
		"frames":          stats.Frames,
		"peakInputLevel":  stats.PeakInputLevel,
		"peakOutputLevel": stats.PeakOutputLevel,
		"maxReductionDB":  stats.MaxReductionDB,
	}).Info("render finished")

	return stats, nil
}

func supportedBitDepth(bits int) bool {
	return bits == 16 || bits == 24 || bits == 32
}

// fullScale is the integer magnitude that maps to 1.0.
func fullScale(bits int) float64 {
	return float64(int64(1) << (bits - 1))
}

func intsToBlock(dst [][]float64, src []int, scale float64) {
	channels := len(dst)
	for i := range core.Frames(dst) {
		for ch := range channels {
			dst[ch][i] = float64(src[i*channels+ch]) / scale
		}
	}
}

func blockToInts(dst []int, src [][]float64, scale float64) {
	channels := len(src)
	maxInt := scale - 1
	for i := range core.Frames(src) {
		for ch := range channels {
			v := math.Round(core.Clamp(src[ch][i]*scale, -scale, maxInt))
			dst[i*channels+ch] = int(v)
		}
	}
}
