package audio

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

var (
	// ErrUnsupportedBitDepth is returned for WAV data that is not 16, 24 or
	// 32-bit integer PCM.
	ErrUnsupportedBitDepth = errors.New("audio: only 16, 24 and 32-bit PCM is supported")

	// ErrChannelCount is returned for a channel count outside [1, MaxChannels].
	ErrChannelCount = errors.New("audio: unsupported channel count")

	// ErrInvalidWAV is returned when the input is not a readable WAV file.
	ErrInvalidWAV = errors.New("audio: invalid wav file")
)

// MaxChannels is the largest channel count a session accepts.
const MaxChannels = 8

// Session is one prepared run of a processor. Its ID tags every log entry
// between Open and Close.
type Session struct {
	ID   xid.ID
	proc *effectchain.Processor
	log  logrus.FieldLogger
}

// Open prepares proc and returns the session.
func Open(proc *effectchain.Processor, sampleRate float64, blockSize, channels int, log logrus.FieldLogger) (*Session, error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d", ErrChannelCount, channels)
	}

	id := xid.New()
	entry := log.WithFields(logrus.Fields{
		"session":    id.String(),
		"sampleRate": sampleRate,
		"blockSize":  blockSize,
		"channels":   channels,
	})

	if err := proc.Prepare(sampleRate, blockSize, channels); err != nil {
		entry.WithError(err).Error("prepare failed")
		return nil, err
	}
	entry.Info("processor prepared")

	return &Session{ID: id, proc: proc, log: log.WithField("session", id.String())}, nil
}

// Logger returns a logger carrying the session id.
func (s *Session) Logger() logrus.FieldLogger { return s.log }

// Processor returns the prepared processor.
func (s *Session) Processor() *effectchain.Processor { return s.proc }

// Close releases the processor.
func (s *Session) Close() {
	blocks := s.proc.Blocks()
	s.proc.Release()
	s.log.WithField("blocks", blocks).Info("processor released")
}
