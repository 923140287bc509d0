// Package logging builds the zerolog loggers used across the hexapod.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level. Unknown names fall
// back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Sampled wraps l so that bursts of repeated events are thinned out: at most
// 5 entries per second, then 1 in 100.
func Sampled(l zerolog.Logger) zerolog.Logger {
	return l.With().Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}

// ChannelWriter delivers each formatted log line to a channel, dropping lines
// when the reader falls behind. It backs the monitor's log box.
type ChannelWriter struct {
	ch chan string
}

// NewChannelWriter creates a writer buffering up to size lines.
func NewChannelWriter(size int) *ChannelWriter {
	return &ChannelWriter{ch: make(chan string, size)}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	select {
	case w.ch <- line:
	default:
		// Drop if channel full
	}
	return len(p), nil
}

// Lines returns the channel of log lines.
func (w *ChannelWriter) Lines() <-chan string {
	return w.ch
}
