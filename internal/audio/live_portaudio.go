//go:build portaudio

package audio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

const backendAvailable = true

// RunLive runs proc on the default duplex device until ctx is done.
func RunLive(ctx context.Context, proc *effectchain.Processor, cfg LiveConfig, log logrus.FieldLogger) error {
	session, err := Open(proc, cfg.SampleRate, cfg.BlockSize, cfg.Channels, log)
	if err != nil {
		return fmt.Errorf("live: %w", err)
	}
	defer session.Close()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer func() {
		if err := portaudio.Terminate(); err != nil {
			session.Logger().WithError(err).Warn("portaudio terminate")
		}
	}()

	d := newDuplex(cfg.Channels, cfg.BlockSize, proc.Process)

	stream, err := portaudio.OpenDefaultStream(cfg.Channels, cfg.Channels, cfg.SampleRate, cfg.BlockSize, d.process)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	session.Logger().Info("stream started")

	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	session.Logger().Info("stream stopped")

	return nil
}
