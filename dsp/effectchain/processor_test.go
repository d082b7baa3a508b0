package effectchain

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fxchain/internal/testutil"
	"github.com/cwbudde/algo-fxchain/measure/level"
	"github.com/cwbudde/algo-fxchain/measure/response"
)

func preparedProcessor(t *testing.T, opts ...ProcessorOption) *Processor {
	t.Helper()

	p := NewProcessor(opts...)
	if err := p.Prepare(testSampleRate, 256, 2); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	return p
}

func TestProcessorProcessBeforePreparePanics(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	requirePanics(t, ErrNotPrepared, func() {
		p.Process(testutil.Constant(2, 32, 0))
	})

	p = preparedProcessor(t)
	p.Release()
	requirePanics(t, ErrNotPrepared, func() {
		p.Process(testutil.Constant(2, 32, 0))
	})
}

func TestProcessorPrepareRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	if err := p.Prepare(-1, 256, 2); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("Prepare(-1) = %v, want ErrInvalidSpec", err)
	}
	if err := p.Prepare(testSampleRate, 256, 0); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("Prepare(channels=0) = %v, want ErrInvalidSpec", err)
	}
	if p.State() != StateUnprepared {
		t.Fatalf("State() = %v", p.State())
	}
	if p.Params().SampleRate() != 0 {
		t.Fatal("rejected Prepare published a sample rate")
	}
}

func TestProcessorDefaultsAreIdentity(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t)
	for range 50 {
		block := testutil.Sine(2, 256, 997, testSampleRate, 0.1)
		want := testutil.Clone(block)
		p.Process(block)
		testutil.RequireBlockEqual(t, block, want)
	}

	if p.InputLevel() != p.OutputLevel() {
		t.Fatalf("levels differ: in %v out %v", p.InputLevel(), p.OutputLevel())
	}
	if p.GainReductionDB() != 0 {
		t.Fatalf("GainReductionDB() = %v below threshold", p.GainReductionDB())
	}
	if p.Blocks() != 50 {
		t.Fatalf("Blocks() = %d, want 50", p.Blocks())
	}
}

func TestProcessorMeters(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t, WithGainRamp(0))
	p.Params().SetOutputGainDB(-20)

	block := testutil.Constant(2, 256, 0.1) // -20 dBFS
	p.Process(block)

	if got, want := p.InputLevel(), level.FromRMS(0.1); math.Abs(got-want) > 1e-12 {
		t.Fatalf("InputLevel() = %v, want %v", got, want)
	}

	// 0.1 through -20 dB is -40 dBFS.
	if got := level.ToDB(p.OutputLevel()); math.Abs(got+40) > 1e-6 {
		t.Fatalf("output level = %v dB, want -40", got)
	}

	p.Release()
	if p.InputLevel() != 0 || p.OutputLevel() != 0 {
		t.Fatal("Release did not clear the meters")
	}
}

func TestProcessorChannelMaxMeters(t *testing.T) {
	t.Parallel()

	block := testutil.Constant(2, 256, 0)
	for i := range block[0] {
		block[0][i] = 0.5
	}

	avg := preparedProcessor(t)
	loud := preparedProcessor(t, WithChannelMaxMeters())

	avg.Process(testutil.Clone(block))
	loud.Process(testutil.Clone(block))

	if !(loud.InputLevel() > avg.InputLevel()) {
		t.Fatalf("channel max %v should exceed average %v", loud.InputLevel(), avg.InputLevel())
	}
	if got, want := loud.InputLevel(), level.FromRMS(0.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("channel max level = %v, want %v", got, want)
	}
}

func TestProcessorCompresses(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t)
	p.Params().SetThresholdDB(-30)
	p.Params().SetRatio(10)
	p.Params().SetAttackMs(1)

	var in, out float64
	for range 40 {
		block := testutil.Sine(2, 256, 220, testSampleRate, 1)
		in = testutil.RMS(block)
		p.Process(block)
		out = testutil.RMS(block)
		testutil.RequireFinite(t, block)
	}

	if p.GainReductionDB() < 15 {
		t.Fatalf("GainReductionDB() = %v, want heavy reduction", p.GainReductionDB())
	}
	if !(out < in/4) {
		t.Fatalf("output rms %v not reduced from %v", out, in)
	}
	if !(p.OutputLevel() < p.InputLevel()) {
		t.Fatal("output meter should read below input meter")
	}
}

func TestProcessorEQResponse(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t)
	if err := p.Params().SetEQGainDB(1, 12); err != nil {
		t.Fatal(err)
	}

	ir := response.Capture(p.Process, 2, 4096, 256, 1e-3)
	r, err := response.Analyze(ir, testSampleRate, 4096)
	if err != nil {
		t.Fatal(err)
	}

	if got := r.At(1000); math.Abs(got-12) > 0.05 {
		t.Fatalf("gain at 1 kHz = %.3f dB, want 12", got)
	}
	if got := r.At(50); math.Abs(got) > 0.5 {
		t.Fatalf("gain at 50 Hz = %.3f dB, want about 0", got)
	}
	if peak := r.Peak(); math.Abs(peak.FreqHz-1000) > 50 {
		t.Fatalf("peak at %v Hz", peak.FreqHz)
	}
}

func TestProcessorParamsSurviveRelease(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t)
	p.Params().SetInputGainDB(-6)
	_ = p.Params().SetEQGainDB(0, 4)
	p.Release()

	if err := p.Prepare(96000, 128, 2); err != nil {
		t.Fatal(err)
	}

	if p.Chain().InputGain().GainDecibels() != -6 || !p.Chain().InputGain().Settled() {
		t.Fatal("input gain not restored at Prepare")
	}
	if b, _ := p.Chain().EQBand(0); b.GainDB != 4 {
		t.Fatalf("EQBand(0) = %+v", b)
	}
	if p.Spec().SampleRate != 96000 || p.Params().SampleRate() != 96000 {
		t.Fatal("sample rate not updated")
	}
	if p.Blocks() != 0 {
		t.Fatalf("Blocks() = %d after Prepare", p.Blocks())
	}
}

func TestProcessorPrepareReleasePrepareEquivalence(t *testing.T) {
	t.Parallel()

	run := func(p *Processor) [][]float64 {
		var out [][]float64
		for i := range 8 {
			block := testutil.Noise(int64(i), 2, 256, 0.9)
			p.Process(block)
			out = append(out, block...)
		}
		return out
	}

	p := preparedProcessor(t)
	p.Params().SetThresholdDB(-30)
	p.Params().SetMakeupGainDB(6)
	_ = p.Params().SetEQQ(2, 3)

	if err := p.Prepare(testSampleRate, 256, 2); err != nil {
		t.Fatal(err)
	}
	first := run(p)

	p.Release()
	if err := p.Prepare(testSampleRate, 256, 2); err != nil {
		t.Fatal(err)
	}
	second := run(p)

	testutil.RequireBlockEqual(t, second, first)

	// A fresh processor with the same parameters agrees too.
	q := NewProcessor()
	q.Params().SetThresholdDB(-30)
	q.Params().SetMakeupGainDB(6)
	_ = q.Params().SetEQQ(2, 3)
	if err := q.Prepare(testSampleRate, 256, 2); err != nil {
		t.Fatal(err)
	}

	testutil.RequireBlockEqual(t, run(q), first)
}

func TestProcessorGainRampOption(t *testing.T) {
	t.Parallel()

	p := preparedProcessor(t, WithGainRamp(0))
	p.Params().SetOutputGainDB(-6)

	block := testutil.Constant(2, 16, 1)
	p.Process(block)

	want := math.Pow(10, -6.0/20)
	if math.Abs(block[0][0]-want) > 1e-12 {
		t.Fatalf("first sample = %v, want %v with no ramp", block[0][0], want)
	}
}

func TestProcessorParamsObserver(t *testing.T) {
	t.Parallel()

	var ids []ParamID
	p := NewProcessor(WithParamsOptions(WithObserver(func(id ParamID, _ float64) {
		ids = append(ids, id)
	})))

	p.Params().SetRatio(3)
	if len(ids) != 1 || ids[0] != ParamRatio {
		t.Fatalf("observer saw %v", ids)
	}
}

func TestProcessorProcessAllocs(t *testing.T) {
	p := preparedProcessor(t)
	p.Params().SetInputGainDB(6)
	_ = p.Params().SetEQGainDB(1, 6)
	block := testutil.Noise(5, 2, 256, 0.5)

	allocs := testing.AllocsPerRun(50, func() {
		p.Process(block)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}
