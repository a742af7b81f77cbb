// SPDX-License-Identifier: Apache-2.0

package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeFields(t *testing.T) {
	t.Parallel()

	require.Equal(t, Fields{}, MergeFields(nil, nil))
	require.Equal(t, Fields{"a": 1, "b": 3, "c": 4}, MergeFields(Fields{"a": 1, "b": 2}, Fields{"b": 3, "c": 4}))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	require.Equal(t, &NoopLogger{}, NewLogger(nil))

	l := NewRecordingLogger()
	require.Equal(t, l, NewLogger(l))
}

func TestRecordingLogger(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	l := NewRecordingLogger()
	moduleLogger := l.WithFields(Fields{ModuleField: "test"})

	l.Debug("debug line")
	moduleLogger.Warn(errTest, "warn line", Fields{ClassField: "Post"})
	moduleLogger.Error(nil, "error line")

	require.Len(t, l.Entries(""), 3)
	require.Equal(t, []Entry{
		{
			Level:   "warn",
			Message: "warn line",
			Err:     errTest,
			Fields:  Fields{ModuleField: "test", ClassField: "Post"},
		},
	}, l.Entries("warn"))
	require.Equal(t, Fields{}, l.Entries("debug")[0].Fields)

	require.Panics(t, func() { l.Panic("panic line") })
	require.Len(t, l.Entries("panic"), 1)
}
