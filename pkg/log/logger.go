// SPDX-License-Identifier: Apache-2.0

package log

import (
	"maps"
	"sync"
)

type Logger interface {
	Trace(msg string, fields ...Fields)
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(err error, msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	Panic(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type Fields map[string]any

// Field names shared across components, so log lines about the same class or
// document can be correlated.
const (
	ModuleField   = "module"
	ClassField    = "class"
	FieldField    = "field"
	DocumentField = "document_id"
)

type NoopLogger struct{}

func (l *NoopLogger) Trace(msg string, fields ...Fields)            {}
func (l *NoopLogger) Debug(msg string, fields ...Fields)            {}
func (l *NoopLogger) Info(msg string, fields ...Fields)             {}
func (l *NoopLogger) Warn(err error, msg string, fields ...Fields)  {}
func (l *NoopLogger) Error(err error, msg string, fields ...Fields) {}
func (l *NoopLogger) Panic(msg string, fields ...Fields)            {}
func (l *NoopLogger) WithFields(fields Fields) Logger {
	return l
}

func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// NewLogger will return the logger on input if not nil, or a noop logger
// otherwise.
func NewLogger(l Logger) Logger {
	if l == nil {
		return &NoopLogger{}
	}
	return l
}

// MergeFields returns a new field map with the content of both inputs. Keys
// in f2 take precedence.
func MergeFields(f1, f2 Fields) Fields {
	allFields := make(Fields, len(f1)+len(f2))
	maps.Copy(allFields, f1)
	maps.Copy(allFields, f2)
	return allFields
}

// Entry is a log line kept by the RecordingLogger.
type Entry struct {
	Level   string
	Message string
	Err     error
	Fields  Fields
}

// RecordingLogger keeps every log line in memory. It is meant for asserting
// on logged events in tests.
type RecordingLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  Fields
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

func (l *RecordingLogger) Trace(msg string, fields ...Fields) {
	l.record("trace", nil, msg, fields)
}

func (l *RecordingLogger) Debug(msg string, fields ...Fields) {
	l.record("debug", nil, msg, fields)
}

func (l *RecordingLogger) Info(msg string, fields ...Fields) {
	l.record("info", nil, msg, fields)
}

func (l *RecordingLogger) Warn(err error, msg string, fields ...Fields) {
	l.record("warn", err, msg, fields)
}

func (l *RecordingLogger) Error(err error, msg string, fields ...Fields) {
	l.record("error", err, msg, fields)
}

func (l *RecordingLogger) Panic(msg string, fields ...Fields) {
	l.record("panic", nil, msg, fields)
	panic(msg)
}

// WithFields returns a logger sharing the recorded entries.
func (l *RecordingLogger) WithFields(fields Fields) Logger {
	return &RecordingLogger{
		mu:      l.mu,
		entries: l.entries,
		fields:  MergeFields(l.fields, fields),
	}
}

// Entries returns the recorded entries at the level on input, or all of
// them if the level is empty.
func (l *RecordingLogger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := []Entry{}
	for _, e := range *l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *RecordingLogger) record(level string, err error, msg string, fields []Fields) {
	all := MergeFields(nil, l.fields)
	for _, f := range fields {
		all = MergeFields(all, f)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, Entry{
		Level:   level,
		Message: msg,
		Err:     err,
		Fields:  all,
	})
}
