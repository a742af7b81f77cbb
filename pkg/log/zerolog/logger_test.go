// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/internal/json"
	loglib "github.com/wikyd/sunspot/pkg/log"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	zl := zerolog.New(buf).Level(zerolog.TraceLevel)
	return NewLogger(&zl)
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	return out
}

func TestLogger_fields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := newTestLogger(buf).WithFields(loglib.Fields{loglib.ModuleField: "indexing_session"})

	logger.Info("documents added", loglib.Fields{
		"documents": 2,
		"dirty":     true,
		"ratio":     0.5,
		"types":     []string{"Post", "BaseClass"},
		"latency":   time.Second,
	})

	line := decodeLine(t, strings.TrimSpace(buf.String()))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "documents added", line["message"])
	require.Equal(t, "indexing_session", line[loglib.ModuleField])
	require.Equal(t, float64(2), line["documents"])
	require.Equal(t, true, line["dirty"])
	require.Equal(t, 0.5, line["ratio"])
	require.Equal(t, []any{"Post", "BaseClass"}, line["types"])
}

func TestLogger_levels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := newTestLogger(buf)
	errTest := errors.New("oh noes")

	logger.Trace("trace")
	logger.Debug("debug")
	logger.Warn(errTest, "warn")
	logger.Error(errTest, "error", loglib.Fields{"cause": errTest})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	levels := []string{}
	for _, l := range lines {
		levels = append(levels, decodeLine(t, l)["level"].(string))
	}
	require.Equal(t, []string{"trace", "debug", "warn", "error"}, levels)

	errLine := decodeLine(t, lines[3])
	require.Equal(t, "oh noes", errLine[zerolog.ErrorFieldName])
	require.Equal(t, "oh noes", errLine["cause"])

	require.Panics(t, func() { logger.Panic("panic") })
}

func Test_addBytesToLog(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := newTestLogger(buf)

	logger.Debug("bulk body", loglib.Fields{"body": bytes.Repeat([]byte("a"), logMaxBytes+10)})

	line := decodeLine(t, strings.TrimSpace(buf.String()))
	require.Len(t, line["body"], logMaxBytes)
}
