//go:build !portaudio

package audio

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

const backendAvailable = false

// RunLive reports ErrNoBackend; rebuild with -tags portaudio.
func RunLive(context.Context, *effectchain.Processor, LiveConfig, logrus.FieldLogger) error {
	return ErrNoBackend
}
