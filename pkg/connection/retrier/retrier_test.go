// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/internal/backoff"
	backoffmocks "github.com/wikyd/sunspot/internal/backoff/mocks"
	"github.com/wikyd/sunspot/internal/searchstore"
	"github.com/wikyd/sunspot/pkg/document"
	"github.com/wikyd/sunspot/pkg/session/mocks"
)

var errTest = errors.New("oh noes")

func testBackoffProvider() backoff.Provider {
	return backoff.NewProvider(&backoff.Config{
		Constant: &backoff.ConstantConfig{Interval: time.Millisecond, MaxRetries: 3},
	})
}

func TestConnection_Commit(t *testing.T) {
	t.Parallel()

	retryableErr := searchstore.RetryableError{Cause: errTest}

	tests := []struct {
		name    string
		errs    []error
		wantErr error

		wantCalls uint
	}{
		{
			name:      "ok",
			errs:      []error{nil},
			wantCalls: 1,
		},
		{
			name:      "ok - retryable error",
			errs:      []error{retryableErr, fmt.Errorf("refreshing: %w", retryableErr), nil},
			wantCalls: 3,
		},
		{
			name:      "ok - too many requests",
			errs:      []error{fmt.Errorf("%w: [429]", searchstore.ErrTooManyRequests), nil},
			wantCalls: 2,
		},
		{
			name:      "error - not retryable",
			errs:      []error{errTest, nil},
			wantErr:   errTest,
			wantCalls: 1,
		},
		{
			name:      "error - retries exhausted",
			errs:      []error{retryableErr, retryableErr, retryableErr, retryableErr},
			wantErr:   errTest,
			wantCalls: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inner := &mocks.Connection{
				CommitFn: func(_ context.Context, i uint) error {
					return tc.errs[i-1]
				},
			}

			conn := NewConnection(inner, nil)
			conn.backoffProvider = testBackoffProvider()

			err := conn.Commit(context.Background())
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantCalls, inner.CommitCalls())
		})
	}
}

func TestConnection_operations(t *testing.T) {
	t.Parallel()

	docs := []*document.Document{{ID: "Post 1", Types: []string{"Post"}}}
	addCalls, deleteCalls, queryCalls := 0, 0, 0

	inner := &mocks.Connection{
		AddFn: func(_ context.Context, got ...*document.Document) error {
			require.Equal(t, docs, got)
			addCalls++
			if addCalls == 1 {
				return searchstore.RetryableError{Cause: errTest}
			}
			return nil
		},
		DeleteFn: func(_ context.Context, ids ...string) error {
			require.Equal(t, []string{"Post 1"}, ids)
			deleteCalls++
			return nil
		},
		DeleteByQueryFn: func(_ context.Context, query string) error {
			require.Equal(t, "type:Post", query)
			queryCalls++
			return errTest
		},
	}

	conn := NewConnection(inner, nil)
	conn.backoffProvider = testBackoffProvider()

	ctx := context.Background()
	require.NoError(t, conn.Add(ctx, docs...))
	require.NoError(t, conn.Delete(ctx, "Post 1"))
	require.ErrorIs(t, conn.DeleteByQuery(ctx, "type:Post"), errTest)

	require.Equal(t, 2, addCalls)
	require.Equal(t, 1, deleteCalls)
	require.Equal(t, 1, queryCalls)
}

func TestConnection_retryOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opErr error

		wantPermanent bool
	}{
		{
			name:  "ok",
			opErr: nil,
		},
		{
			name:  "retryable error",
			opErr: searchstore.RetryableError{Cause: errTest},
		},
		{
			name:          "non retryable error is permanent",
			opErr:         errTest,
			wantPermanent: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inner := &mocks.Connection{
				DeleteFn: func(context.Context, ...string) error { return tc.opErr },
			}

			conn := NewConnection(inner, nil)
			conn.backoffProvider = func(context.Context) backoff.Backoff {
				return &backoffmocks.Backoff{
					RetryNotifyFn: func(op backoff.Operation, notify backoff.Notify) error {
						err := op()
						var permanentErr *backoff.PermanentError
						require.Equal(t, tc.wantPermanent, errors.As(err, &permanentErr))
						if err != nil {
							notify(err, time.Millisecond)
						}
						return err
					},
				}
			}

			err := conn.Delete(context.Background(), "Post 1")
			require.ErrorIs(t, err, tc.opErr)
		})
	}
}

func TestConfig_backoffConfig(t *testing.T) {
	t.Parallel()

	defaultCfg := &backoff.Config{
		Exponential: &backoff.ExponentialConfig{
			InitialInterval: defaultRetryInitialInterval,
			MaxInterval:     defaultRetryMaxInterval,
			MaxRetries:      defaultRetryMaxRetries,
		},
	}

	var nilCfg *Config
	require.Equal(t, defaultCfg, nilCfg.backoffConfig())
	require.Equal(t, defaultCfg, (&Config{}).backoffConfig())

	constant := &Config{Backoff: backoff.Config{Constant: &backoff.ConstantConfig{Interval: time.Second}}}
	require.Equal(t, &constant.Backoff, constant.backoffConfig())
}
