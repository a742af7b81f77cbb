// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/internal/json"
	loglib "github.com/wikyd/sunspot/pkg/log"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config func(out *bytes.Buffer) *Config

		wantOutput func(t *testing.T, out string)
	}{
		{
			name: "json format",
			config: func(out *bytes.Buffer) *Config {
				return &Config{LogLevel: "info", Format: FormatJSON, Output: out}
			},
			wantOutput: func(t *testing.T, out string) {
				line := map[string]any{}
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &line))
				require.Equal(t, "info", line["level"])
				require.Equal(t, "session committed", line["message"])
				require.Equal(t, "indexing_session", line[loglib.ModuleField])
				require.NotEmpty(t, line["timestamp"])
				require.Contains(t, line["caller"], ".go:")
			},
		},
		{
			name: "console format",
			config: func(out *bytes.Buffer) *Config {
				return &Config{LogLevel: "info", Output: out}
			},
			wantOutput: func(t *testing.T, out string) {
				require.Contains(t, out, "INF")
				require.Contains(t, out, "session committed")
				require.Contains(t, out, "module=indexing_session")
			},
		},
		{
			name: "level filters output",
			config: func(out *bytes.Buffer) *Config {
				return &Config{LogLevel: "error", Format: FormatJSON, Output: out}
			},
			wantOutput: func(t *testing.T, out string) {
				require.Empty(t, out)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			logger := NewStdLogger(NewLogger(tc.config(buf))).WithFields(loglib.Fields{
				loglib.ModuleField: "indexing_session",
			})
			logger.Info("session committed")

			tc.wantOutput(t, buf.String())
		})
	}
}

func TestNewLogr(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	l := NewLogr(NewLogger(&Config{LogLevel: "info", Format: FormatJSON, Output: buf}))
	l.Info("exporter started", "endpoint", "localhost:4317")

	line := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	require.Equal(t, "exporter started", line["message"])
	require.Equal(t, "localhost:4317", line["endpoint"])
}
