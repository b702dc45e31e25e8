// Package logging configures the process-wide zerolog logger and the
// optional mirroring of error-level events to an operator-facing Discord
// channel.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options controls logger construction.
type Options struct {
	// Debug lowers the level to debug and disables the error mirror.
	Debug bool
	// MirrorWebhookURL is the Discord webhook error-level events are
	// mirrored to. Empty disables mirroring.
	MirrorWebhookURL string
}

// New builds the root logger. The returned closer flushes and stops the
// mirror worker; it is a no-op when mirroring is off.
func New(opts Options) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}

	var writer io.Writer = console
	var closer io.Closer = nopCloser{}
	if opts.MirrorWebhookURL != "" && !opts.Debug {
		mirror := newMirrorWriter(opts.MirrorWebhookURL)
		writer = zerolog.MultiLevelWriter(console, mirror)
		closer = mirror
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
