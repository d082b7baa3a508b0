package cli

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/audio"
	"github.com/cwbudde/algo-fxchain/internal/control"
	"github.com/cwbudde/algo-fxchain/internal/metrics"
	"github.com/cwbudde/algo-fxchain/internal/monitor"
)

func liveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run the chain on the default audio device with the HTTP control surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLive(cmd)
		},
	}

	cmd.Flags().Float64("refresh-hz", 30, "meter poll rate")
	cmd.Flags().String("listen", "127.0.0.1:8000", "control server address")
	cmd.Flags().Bool("control", true, "serve the HTTP control surface")
	addParamFlags(cmd.Flags())

	return cmd
}

func (a *app) runLive(cmd *cobra.Command) error {
	registry := prometheus.NewRegistry()
	m, err := metrics.NewChainMetrics(registry)
	if err != nil {
		return err
	}

	proc := effectchain.NewProcessor(effectchain.WithParamsOptions(
		effectchain.WithObserver(func(id effectchain.ParamID, _ float64) {
			m.ParamUpdated(string(id))
		}),
	))
	if err := applyParamFlags(cmd.Flags(), proc.Params()); err != nil {
		return err
	}

	poller, err := monitor.New(proc, a.settings.Meter.RefreshHz, monitor.WithSink(m), monitor.WithLogger(a.log))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return audio.RunLive(ctx, proc, audio.LiveConfig{
			SampleRate: a.settings.Audio.SampleRate,
			BlockSize:  a.settings.Audio.BlockSize,
			Channels:   a.settings.Audio.Channels,
		}, a.log)
	})

	g.Go(func() error {
		return ignoreCanceled(poller.Run(ctx))
	})

	if a.settings.Control.Enabled {
		srv := control.New(proc.Params(), proc, control.WithGatherer(registry), control.WithLogger(a.log))
		g.Go(func() error {
			return srv.Run(ctx, a.settings.Control.Listen)
		})
	}

	if err := g.Wait(); err != nil {
		a.log.WithError(err).Error("live session ended")
		return err
	}

	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
