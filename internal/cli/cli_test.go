package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/cpu"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FXCHAIN_DEBUG", "")

	var out, logs bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&logs)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestParamsText(t *testing.T) {
	out, err := run(t, "params")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(effectchain.Descriptors())+1)
	assert.Contains(t, lines[0], "DEFAULT")
	assert.Contains(t, out, "comp.thresholdDB")
	assert.Contains(t, out, "eq3.q")
}

func TestParamsJSONAndYAML(t *testing.T) {
	out, err := run(t, "params", "--format", "json")
	require.NoError(t, err)

	var fromJSON []effectchain.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	assert.Equal(t, effectchain.Descriptors(), fromJSON)

	out, err = run(t, "params", "--format", "yaml")
	require.NoError(t, err)

	var fromYAML []effectchain.Descriptor
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, effectchain.Descriptors(), fromYAML)
}

func TestParamsUnknownFormat(t *testing.T) {
	_, err := run(t, "params", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestResponseCommand(t *testing.T) {
	out, err := run(t, "response", "--eq2.gainDB", "12", "--points", "2", "--min-hz", "1000", "--max-hz", "2000")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	fields := strings.Fields(lines[1])
	require.Len(t, fields, 2)
	assert.Equal(t, "1000.0", fields[0])

	gain, err := strconv.ParseFloat(fields[1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 12, gain, 0.05)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	f, err := os.Create(in)
	require.NoError(t, err)
	data := make([]int, 2*1000)
	for i := range data {
		data[i] = int(3000 * math.Sin(float64(i)/10))
	}
	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	stdout, err := run(t, "render", "--in", in, "--out", out, "--output.gainDB", "-6", "--block-size", "128")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1000 frames")
	assert.Contains(t, stdout, "44100 Hz")

	rf, err := os.Open(out)
	require.NoError(t, err)
	defer rf.Close()

	buf, err := wav.NewDecoder(rf).FullPCMBuffer()
	require.NoError(t, err)
	require.Len(t, buf.Data, len(data))

	g := math.Pow(10, -6.0/20)
	for i := range data {
		require.InDelta(t, float64(data[i])*g, float64(buf.Data[i]), 1, "sample %d", i)
	}
}

func TestRenderNeedsPaths(t *testing.T) {
	_, err := run(t, "render", "--in", "x.wav")
	assert.ErrorContains(t, err, "--in and --out")
}

func TestRejectsInvalidSettings(t *testing.T) {
	_, err := run(t, "params", "--block-size", "0")
	assert.Error(t, err)
}

func TestGenericFlag(t *testing.T) {
	t.Cleanup(cpu.ResetDetection)

	_, err := run(t, "params", "--generic")
	require.NoError(t, err)
	assert.True(t, cpu.DetectFeatures().ForceGeneric)
}

func TestUnknownParamFlag(t *testing.T) {
	_, err := run(t, "response", "--eq4.gainDB", "3")
	assert.Error(t, err)
}
