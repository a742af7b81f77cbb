// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/wikyd/sunspot/pkg/log"
)

// Logger adapts a zerolog logger to the loglib interface. Fields set with
// WithFields are added to every event.
type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// document field maps and bulk bodies can be large, truncate byte values
// past this limit
const logMaxBytes = 10000

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{
		zerologger: zl,
	}
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Trace(), fields).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Debug(), fields).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Info(), fields).Msg(msg)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Warn().Err(err), fields).Msg(msg)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Error().Err(err), fields).Msg(msg)
}

func (l *Logger) Panic(msg string, fields ...loglib.Fields) {
	l.withFields(l.zerologger.Panic(), fields).Msg(msg)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

func (l *Logger) withFields(event *zerolog.Event, fieldMaps []loglib.Fields) *zerolog.Event {
	event = addFields(event, l.fields)
	for _, m := range fieldMaps {
		event = addFields(event, m)
	}
	return event
}

func addFields(event *zerolog.Event, fields loglib.Fields) *zerolog.Event {
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case bool:
			event = event.Bool(key, v)
		case int:
			event = event.Int(key, v)
		case int32:
			event = event.Int32(key, v)
		case int64:
			event = event.Int64(key, v)
		case uint:
			event = event.Uint(key, v)
		case uint64:
			event = event.Uint64(key, v)
		case float64:
			event = event.Float64(key, v)
		case []byte:
			event = addBytesToLog(event, key, v)
		case time.Time:
			event = event.Time(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case []string:
			event = event.Strs(key, v)
		case error:
			event = event.AnErr(key, v)
		case fmt.Stringer:
			event = event.Stringer(key, v)
		default:
			event = event.Any(key, v)
		}
	}
	return event
}

func addBytesToLog(log *zerolog.Event, key string, value []byte) *zerolog.Event {
	if len(value) > logMaxBytes {
		return log.Bytes(key, value[:logMaxBytes])
	}
	return log.Bytes(key, value)
}
