package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/measure/response"
)

// probeAmplitude keeps the impulse far below any compressor threshold.
const probeAmplitude = 1e-3

func responseCommand(a *app) *cobra.Command {
	var (
		points       int
		length       int
		minHz, maxHz float64
	)

	cmd := &cobra.Command{
		Use:   "response",
		Short: "Print the chain's small-signal magnitude response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proc := effectchain.NewProcessor()
			if err := applyParamFlags(cmd.Flags(), proc.Params()); err != nil {
				return err
			}

			s := a.settings.Audio
			if err := proc.Prepare(s.SampleRate, s.BlockSize, s.Channels); err != nil {
				return err
			}
			defer proc.Release()

			ir := response.Capture(proc.Process, s.Channels, length, s.BlockSize, probeAmplitude)
			r, err := response.Analyze(ir, s.SampleRate, length)
			if err != nil {
				return err
			}

			maxHz = min(maxHz, s.SampleRate/2)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "freq (Hz)\tgain (dB)\t")
			for _, p := range r.Resample(points, minHz, maxHz) {
				fmt.Fprintf(tw, "%.1f\t%.2f\t\n", p.FreqHz, p.MagnitudeDB)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&points, "points", 32, "number of log-spaced frequencies")
	cmd.Flags().IntVar(&length, "length", 8192, "impulse response length in samples")
	cmd.Flags().Float64Var(&minHz, "min-hz", 20, "lowest frequency")
	cmd.Flags().Float64Var(&maxHz, "max-hz", 20000, "highest frequency")
	addParamFlags(cmd.Flags())

	return cmd
}
