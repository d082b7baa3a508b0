// Package cli implements the fxchain command.
package cli

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-fxchain/internal/config"
	"github.com/cwbudde/algo-fxchain/internal/cpu"
	"github.com/cwbudde/algo-fxchain/internal/logging"
)

// app is the state shared by all subcommands once flags are parsed.
type app struct {
	configPath string
	settings   *config.Settings
	log        *logrus.Logger

	// logOutput overrides stderr; used by tests.
	logOutput io.Writer
}

// NewRootCommand returns the fxchain command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fxchain",
		Short:         "Real-time effects chain: gain, compressor, three-band EQ",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: ./fxchain.yaml or ~/.config/fxchain/fxchain.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Float64("sample-rate", 48000, "sample rate in Hz")
	pf.Int("block-size", 512, "block size in frames")
	pf.Int("channels", 2, "channel count")
	pf.Bool("generic", false, "use the portable filter kernel only")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.initialize(cmd)
	}

	root.AddCommand(
		renderCommand(a),
		liveCommand(a),
		responseCommand(a),
		paramsCommand(),
	)

	return root
}

func (a *app) initialize(cmd *cobra.Command) error {
	settings, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = settings

	out := a.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	a.log = logging.NewWithOutput(settings.Log.Level, out)

	if settings.DSP.ForceGeneric {
		cpu.ForceGeneric()
		a.log.Debug("generic kernels forced")
	}

	return nil
}
