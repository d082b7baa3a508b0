// Package logging builds the logrus loggers used by the host side.
//
// Nothing on the audio goroutine logs.
package logging

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv forces debug level when set to a true value.
const DebugEnv = "FXCHAIN_DEBUG"

// New returns a text logger at level. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput is New writing to w.
func NewWithOutput(level string, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debugFromEnv() {
		lvl = logrus.DebugLevel
	}
	l.SetLevel(lvl)

	return l
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func debugFromEnv() bool {
	debug, err := strconv.ParseBool(os.Getenv(DebugEnv))
	return err == nil && debug
}
