// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"io"
	stdlog "log"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	loglib "github.com/wikyd/sunspot/pkg/log"
	zerologlib "github.com/wikyd/sunspot/pkg/log/zerolog"
)

type Config struct {
	LogLevel string
	// Format is either "console" or "json". Defaults to console.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// init sets some zerolog global defaults we want to keep throughout the project.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.ErrorFieldName = "error.message"
	zerolog.ErrorStackFieldName = "error.stack"
	// the v-level is redundant with the zerolog `level`
	zerologr.VerbosityFieldName = ""

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return path.Base(file) + ":" + strconv.Itoa(line)
	}
}

// SetGlobalLogger sets the log output in the stdlib log package and the
// zerolog global loggers.
func SetGlobalLogger(logger *zerolog.Logger) {
	// dependencies logging to `log.Default()` end up in our logger
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)

	log.Logger = *logger

	// used when a context.Context is missing a contextual logger
	zerolog.DefaultContextLogger = logger
}

func NewStdLogger(l *zerolog.Logger) loglib.Logger {
	return zerologlib.NewLogger(l)
}

// NewLogr wraps the logger for libraries logging through logr, such as the
// opentelemetry SDK.
func NewLogr(l *zerolog.Logger) logr.Logger {
	return zerologr.New(l)
}

// NewLogger creates a new logger. It emits a timestamp, the caller's
// filename, and the stacktrace for errors that carry one.
//
// Trace and debug logs are sampled. Up to 100 trace logs per minute are
// kept. Once 1000 debug logs per minute are reached, only one in 5 is kept.
func NewLogger(config *Config) *zerolog.Logger {
	// an invalid level defaults to no level
	level, _ := zerolog.ParseLevel(config.LogLevel)

	logger := zerolog.New(config.writer()).
		Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BurstSampler{
				Burst:  100,
				Period: 1 * time.Minute,
			},
			DebugSampler: &zerolog.BurstSampler{
				Burst:       1000,
				Period:      1 * time.Minute,
				NextSampler: &zerolog.BasicSampler{N: 5},
			},
		}).
		With().
		Timestamp().
		Caller().
		Stack().
		Logger().
		Level(level)

	return &logger
}

func (c *Config) writer() io.Writer {
	out := c.Output
	if out == nil {
		out = os.Stderr
	}

	if c.Format == FormatJSON {
		return out
	}

	return zerolog.NewConsoleWriter(
		withTimeFormat(time.RFC3339Nano),
		withOut(out),
	)
}

func withTimeFormat(format string) func(*zerolog.ConsoleWriter) {
	return func(w *zerolog.ConsoleWriter) {
		w.TimeFormat = format
	}
}

func withOut(out io.Writer) func(*zerolog.ConsoleWriter) {
	return func(w *zerolog.ConsoleWriter) {
		w.Out = out
	}
}
