// Package config loads the host settings of the fxchain command from
// fxchain.yaml, FXCHAIN_* environment variables and command-line flags.
//
// Effect parameters are not configuration; they come from flags or the
// control API.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Load when a setting is out of range.
var ErrInvalidConfig = errors.New("config: invalid setting")

const (
	// FileName is the config file name searched without extension.
	FileName = "fxchain"

	// EnvPrefix prefixes every environment override, e.g.
	// FXCHAIN_AUDIO_SAMPLERATE.
	EnvPrefix = "FXCHAIN"
)

// Settings is the complete host configuration.
type Settings struct {
	Audio   AudioSettings   `mapstructure:"audio" yaml:"audio"`
	Meter   MeterSettings   `mapstructure:"meter" yaml:"meter"`
	Control ControlSettings `mapstructure:"control" yaml:"control"`
	Log     LogSettings     `mapstructure:"log" yaml:"log"`
	DSP     DSPSettings     `mapstructure:"dsp" yaml:"dsp"`
}

// AudioSettings configures the live stream and the offline block size.
type AudioSettings struct {
	SampleRate float64 `mapstructure:"samplerate" yaml:"sampleRate"`
	BlockSize  int     `mapstructure:"blocksize" yaml:"blockSize"`
	Channels   int     `mapstructure:"channels" yaml:"channels"`
}

// MeterSettings configures the level poller.
type MeterSettings struct {
	RefreshHz float64 `mapstructure:"refreshhz" yaml:"refreshHz"`
}

// ControlSettings configures the HTTP control surface.
type ControlSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DSPSettings tunes the processing kernels.
type DSPSettings struct {
	ForceGeneric bool `mapstructure:"forcegeneric" yaml:"forceGeneric"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"sample-rate": "audio.sampleRate",
	"block-size":  "audio.blockSize",
	"channels":    "audio.channels",
	"refresh-hz":  "meter.refreshHz",
	"listen":      "control.listen",
	"control":     "control.enabled",
	"log-level":   "log.level",
	"generic":     "dsp.forceGeneric",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sampleRate", 48000.0)
	v.SetDefault("audio.blockSize", 512)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("meter.refreshHz", 30.0)
	v.SetDefault("control.enabled", true)
	v.SetDefault("control.listen", "127.0.0.1:8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("dsp.forceGeneric", false)
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Audio:   AudioSettings{SampleRate: 48000, BlockSize: 512, Channels: 2},
		Meter:   MeterSettings{RefreshHz: 30},
		Control: ControlSettings{Enabled: true, Listen: "127.0.0.1:8000"},
		Log:     LogSettings{Level: "info"},
	}
}

// Load reads the settings. path names an explicit config file; when empty
// fxchain.yaml is searched in the working directory and in
// $HOME/.config/fxchain, and a missing file is not an error. Flags set on
// flags take precedence over environment variables, which take precedence
// over the file.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfig(v, path); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	for _, dir := range searchPaths() {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", FileName))
	}

	return paths
}

// Validate checks every setting.
func (s *Settings) Validate() error {
	switch {
	case !(s.Audio.SampleRate > 0):
		return fmt.Errorf("%w: audio.sampleRate %v", ErrInvalidConfig, s.Audio.SampleRate)
	case s.Audio.BlockSize <= 0:
		return fmt.Errorf("%w: audio.blockSize %d", ErrInvalidConfig, s.Audio.BlockSize)
	case s.Audio.Channels <= 0:
		return fmt.Errorf("%w: audio.channels %d", ErrInvalidConfig, s.Audio.Channels)
	case !(s.Meter.RefreshHz > 0):
		return fmt.Errorf("%w: meter.refreshHz %v", ErrInvalidConfig, s.Meter.RefreshHz)
	case s.Control.Enabled && s.Control.Listen == "":
		return fmt.Errorf("%w: control.listen is empty", ErrInvalidConfig)
	}

	return nil
}
