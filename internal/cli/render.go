package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/audio"
)

func renderCommand(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "render --in in.wav --out out.wav",
		Short: "Process a WAV file offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" || out == "" {
				return errors.New("render needs --in and --out")
			}

			proc := effectchain.NewProcessor()
			if err := applyParamFlags(cmd.Flags(), proc.Params()); err != nil {
				return err
			}

			stats, err := audio.RenderFile(cmd.Context(), proc, in, out, a.settings.Audio.BlockSize, a.log)
			if err != nil {
				a.log.WithError(err).WithField("in", in).Error("render failed")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, %d ch, %d bit, %d Hz, peak in %.3f, peak out %.3f, max GR %.1f dB\n",
				out, stats.Frames, stats.Channels, stats.BitDepth, stats.SampleRate,
				stats.PeakInputLevel, stats.PeakOutputLevel, stats.MaxReductionDB)

			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input WAV file")
	cmd.Flags().StringVar(&out, "out", "", "output WAV file")
	addParamFlags(cmd.Flags())

	return cmd
}
