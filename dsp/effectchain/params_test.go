package effectchain

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-fxchain/dsp/core"
	"github.com/cwbudde/algo-fxchain/dsp/filter/design"
	"github.com/cwbudde/algo-fxchain/internal/testutil"
)

func TestDescriptors(t *testing.T) {
	t.Parallel()

	ds := Descriptors()
	if len(ds) != 7+3*NumEQBands {
		t.Fatalf("len(Descriptors()) = %d", len(ds))
	}

	seen := make(map[ParamID]bool)
	for _, d := range ds {
		if seen[d.ID] {
			t.Fatalf("duplicate id %q", d.ID)
		}
		seen[d.ID] = true

		if !(d.Min < d.Max) || d.Default < d.Min || d.Default > d.Max {
			t.Fatalf("%q: bad range [%v, %v] default %v", d.ID, d.Min, d.Max, d.Default)
		}

		got, ok := Lookup(d.ID)
		if !ok || got != d {
			t.Fatalf("Lookup(%q) = %+v, %v", d.ID, got, ok)
		}
	}

	if ds[0].ID != ParamInputGainDB || ds[len(ds)-1].ID != ParamOutputGainDB {
		t.Fatal("descriptors not in chain order")
	}

	// Mutating the returned slice must not leak into the package table.
	ds[0].Max = 1000
	if d, _ := Lookup(ParamInputGainDB); d.Max != 24 {
		t.Fatalf("descriptor table mutated: %+v", d)
	}

	if _, ok := Lookup("eq4.q"); ok {
		t.Fatal("Lookup of unknown id succeeded")
	}
}

func TestEQParamIDs(t *testing.T) {
	t.Parallel()

	if EQFrequencyParam(0) != "eq1.freqHz" || EQGainParam(1) != "eq2.gainDB" || EQQParam(2) != "eq3.q" {
		t.Fatal("unexpected EQ parameter ids")
	}
}

func TestParamsDefaults(t *testing.T) {
	t.Parallel()

	v := NewParams().Values()
	want := Values{
		ThresholdDB: -18,
		Ratio:       4,
		AttackMs:    20,
		ReleaseMs:   100,
		EQ:          DefaultEQBands(),
	}
	if v != want {
		t.Fatalf("Values() = %+v, want %+v", v, want)
	}

	for _, d := range Descriptors() {
		if got := v.Map()[d.ID]; got != d.Default {
			t.Fatalf("Map()[%q] = %v, want %v", d.ID, got, d.Default)
		}
	}
}

func TestParamsClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   ParamID
		in   float64
		want float64
	}{
		{ParamInputGainDB, 100, 24},
		{ParamInputGainDB, -100, -24},
		{ParamThresholdDB, 6, 0},
		{ParamThresholdDB, -90, -60},
		{ParamRatio, 0.5, 1},
		{ParamRatio, 50, 20},
		{ParamAttackMs, 0, 1},
		{ParamAttackMs, 1000, 200},
		{ParamReleaseMs, 1, 10},
		{ParamReleaseMs, 10000, 500},
		{ParamMakeupGainDB, -30, -12},
		{ParamMakeupGainDB, 30, 24},
		{ParamOutputGainDB, math.Inf(1), 24},
		{EQFrequencyParam(0), 5, 20},
		{EQFrequencyParam(2), 30000, 20000},
		{EQGainParam(1), -40, -18},
		{EQGainParam(1), 40, 18},
		{EQQParam(0), 0, 0.1},
		{EQQParam(2), 100, 10},
		{ParamRatio, math.NaN(), 4},
		{EQFrequencyParam(1), math.NaN(), 1000},
	}

	for _, tt := range tests {
		p := NewParams()
		if err := p.Set(tt.id, tt.in); err != nil {
			t.Fatalf("Set(%q, %v) error = %v", tt.id, tt.in, err)
		}

		got, err := p.Get(tt.id)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("Set(%q, %v) stored %v, want %v", tt.id, tt.in, got, tt.want)
		}
	}
}

func TestParamsTypedSetters(t *testing.T) {
	t.Parallel()

	p := NewParams()
	p.SetInputGainDB(3)
	p.SetThresholdDB(-24)
	p.SetRatio(2)
	p.SetAttackMs(5)
	p.SetReleaseMs(250)
	p.SetMakeupGainDB(6)
	p.SetOutputGainDB(-1)
	if err := p.SetEQFrequency(1, 2500); err != nil {
		t.Fatal(err)
	}
	if err := p.SetEQGainDB(1, -4); err != nil {
		t.Fatal(err)
	}
	if err := p.SetEQQ(1, 1.5); err != nil {
		t.Fatal(err)
	}

	want := Values{
		InputGainDB:  3,
		ThresholdDB:  -24,
		Ratio:        2,
		AttackMs:     5,
		ReleaseMs:    250,
		MakeupGainDB: 6,
		EQ:           DefaultEQBands(),
		OutputGainDB: -1,
	}
	want.EQ[1] = EQBand{FreqHz: 2500, GainDB: -4, Q: 1.5}

	if got := p.Values(); got != want {
		t.Fatalf("Values() = %+v, want %+v", got, want)
	}
}

func TestParamsErrors(t *testing.T) {
	t.Parallel()

	p := NewParams()

	if err := p.Set("comp.knee", 1); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Set(unknown) = %v, want ErrUnknownParam", err)
	}
	if _, err := p.Get("comp.knee"); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Get(unknown) = %v, want ErrUnknownParam", err)
	}

	for _, band := range []int{-1, NumEQBands} {
		if err := p.SetEQFrequency(band, 100); !errors.Is(err, ErrBandOutOfRange) {
			t.Fatalf("SetEQFrequency(%d) = %v", band, err)
		}
		if err := p.SetEQGainDB(band, 1); !errors.Is(err, ErrBandOutOfRange) {
			t.Fatalf("SetEQGainDB(%d) = %v", band, err)
		}
		if err := p.SetEQQ(band, 1); !errors.Is(err, ErrBandOutOfRange) {
			t.Fatalf("SetEQQ(%d) = %v", band, err)
		}
	}

	if p.Values() != NewParams().Values() {
		t.Fatal("rejected updates changed the store")
	}
}

func TestParamsObserver(t *testing.T) {
	t.Parallel()

	type update struct {
		id    ParamID
		value float64
	}

	var got []update
	p := NewParams(WithObserver(func(id ParamID, v float64) {
		got = append(got, update{id, v})
	}))

	p.SetRatio(100)
	_ = p.SetEQGainDB(2, 3)
	_ = p.Set("nope", 1)

	want := []update{{ParamRatio, 20}, {EQGainParam(2), 3}}
	if len(got) != len(want) {
		t.Fatalf("observer saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("update %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParamsApplyPickup(t *testing.T) {
	t.Parallel()

	c := preparedChain(t)
	p := NewParams()
	p.SetSampleRate(testSampleRate)

	p.SetInputGainDB(6)
	p.SetThresholdDB(-30)
	p.SetRatio(8)
	p.SetAttackMs(2)
	p.SetReleaseMs(40)
	p.SetMakeupGainDB(-3)
	p.SetOutputGainDB(1)
	_ = p.SetEQGainDB(2, 9)

	p.Apply(c)

	switch {
	case c.InputGain().GainDecibels() != 6:
		t.Fatal("input gain not applied")
	case c.Compressor().Threshold() != -30, c.Compressor().Ratio() != 8:
		t.Fatal("compressor curve not applied")
	case c.Compressor().Attack() != 2, c.Compressor().Release() != 40:
		t.Fatal("compressor timing not applied")
	case c.MakeupGain().GainDecibels() != -3, c.OutputGain().GainDecibels() != 1:
		t.Fatal("makeup/output gain not applied")
	}

	want := design.Peak(6000, 9, 0.7, testSampleRate)
	if got := c.EQ(2).Coefficients(); got != want {
		t.Fatalf("EQ3 coefficients = %+v, want %+v", got, want)
	}
	if b, _ := c.EQBand(2); b.GainDB != 9 {
		t.Fatalf("EQBand(2) = %+v after Apply", b)
	}

	// Gain targets move; the audible gain ramps.
	if c.InputGain().Settled() {
		t.Fatal("gain jumped to its new target")
	}
}

func TestParamsApplyRejectsForeignSampleRate(t *testing.T) {
	t.Parallel()

	c := preparedChain(t)
	before := c.EQ(1).Coefficients()

	p := NewParams()
	p.SetSampleRate(44100)
	_ = p.SetEQGainDB(1, 12)
	p.Apply(c)

	if got := c.EQ(1).Coefficients(); got != before {
		t.Fatalf("adopted a 44.1 kHz design on a 48 kHz chain: %+v", got)
	}

	p.SetSampleRate(testSampleRate)
	p.Apply(c)

	if got, want := c.EQ(1).Coefficients(), design.Peak(1000, 12, 0.7, testSampleRate); got != want {
		t.Fatalf("coefficients after matching rate = %+v, want %+v", got, want)
	}
}

func TestParamsApplyBeforeSampleRate(t *testing.T) {
	t.Parallel()

	c := preparedChain(t)
	p := NewParams()
	_ = p.SetEQGainDB(0, 6)
	p.Apply(c)

	if !c.EQ(0).Coefficients().IsIdentity() {
		t.Fatal("EQ changed without a published sample rate")
	}
	if p.SampleRate() != 0 {
		t.Fatalf("SampleRate() = %v, want 0", p.SampleRate())
	}
}

func TestParamsConfigure(t *testing.T) {
	t.Parallel()

	p := NewParams()
	p.SetOutputGainDB(-6)
	_ = p.SetEQFrequency(0, 200)

	c := NewChain()
	p.Configure(c)

	if c.OutputGain().GainDecibels() != -6 {
		t.Fatal("Configure did not set output gain")
	}
	if b, _ := c.EQBand(0); b.FreqHz != 200 {
		t.Fatalf("EQBand(0) = %+v", b)
	}
}

func TestParamsConfigureRedesignsEveryBand(t *testing.T) {
	t.Parallel()

	p := NewParams()
	for b := range NumEQBands {
		_ = p.SetEQFrequency(b, 300*float64(b+1))
		_ = p.SetEQGainDB(b, float64(b+1)*2)
		_ = p.SetEQQ(b, 1.5)
	}

	c := preparedChain(t)
	p.Configure(c)

	for b := range NumEQBands {
		band, err := c.EQBand(b)
		if err != nil {
			t.Fatalf("EQBand(%d) error = %v", b, err)
		}
		want := EQBand{FreqHz: 300 * float64(b+1), GainDB: float64(b+1) * 2, Q: 1.5}
		if band != want {
			t.Fatalf("EQBand(%d) = %+v, want %+v", b, band, want)
		}
		if got := c.EQ(b).Coefficients(); got != design.Peak(want.FreqHz, want.GainDB, want.Q, testSampleRate) {
			t.Fatalf("band %d not redesigned: %+v", b, got)
		}
	}
}

func TestParamsApplyAllocs(t *testing.T) {
	c := preparedChain(t)
	p := NewParams()
	p.SetSampleRate(testSampleRate)

	i := 0.0
	allocs := testing.AllocsPerRun(100, func() {
		p.Apply(c)
		i++
		p.values[slotInputGain].Store(math.Mod(i, 12))
	})
	if allocs != 0 {
		t.Fatalf("Apply allocated %v times per run", allocs)
	}
}

// Control goroutines hammer the store while the audio goroutine applies and
// processes. Once the writers stop, one more Apply must leave the chain
// exactly on the final values.
func TestParamsConcurrentUpdates(t *testing.T) {
	t.Parallel()

	c := preparedChain(t)
	p := NewParams()
	p.SetSampleRate(testSampleRate)

	done := make(chan struct{})
	var wg sync.WaitGroup

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				v := float64((i*7+w)%37) - 18
				_ = p.SetEQGainDB(i%NumEQBands, v)
				_ = p.SetEQFrequency((i+1)%NumEQBands, 100+float64(i*w%5000))
				p.SetMakeupGainDB(v / 2)
			}
		}()
	}

	audioDone := make(chan struct{})
	go func() {
		defer close(audioDone)
		src := testutil.Noise(3, 2, 64, 0.5)
		block := testutil.Clone(src)
		for {
			select {
			case <-done:
				return
			default:
			}
			core.CopyBlock(block, src)
			p.Apply(c)
			c.Process(block)
		}
	}()

	wg.Wait()
	close(done)
	<-audioDone

	p.Apply(c)

	v := p.Values()
	for b := range NumEQBands {
		want := design.PeakingCoefficients(testSampleRate, v.EQ[b].FreqHz, v.EQ[b].Q, core.DBToLinear(v.EQ[b].GainDB))
		if got := c.EQ(b).Coefficients(); got != want {
			t.Fatalf("band %d: coefficients %+v do not match final values %+v", b, got, v.EQ[b])
		}
	}
	if c.MakeupGain().GainDecibels() != v.MakeupGainDB {
		t.Fatalf("makeup gain %v, want %v", c.MakeupGain().GainDecibels(), v.MakeupGainDB)
	}
}
