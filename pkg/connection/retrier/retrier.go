// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"time"

	"github.com/wikyd/sunspot/internal/backoff"
	"github.com/wikyd/sunspot/internal/searchstore"
	"github.com/wikyd/sunspot/pkg/document"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/session"
)

// Connection applies a retry strategy to the operations of the wrapped
// connection. Only errors the transport classifies as retryable are retried,
// any other error is returned straight away.
type Connection struct {
	inner           session.Connection
	logger          loglib.Logger
	backoffProvider backoff.Provider
}

type Config struct {
	// If not provided it defaults to using exponential backoff with initial
	// interval of 500ms, max interval of 30s, and 5 max retries.
	Backoff backoff.Config
}

type Option func(*Connection)

const (
	defaultRetryInitialInterval = 500 * time.Millisecond
	defaultRetryMaxInterval     = 30 * time.Second
	defaultRetryMaxRetries      = 5
)

func NewConnection(inner session.Connection, cfg *Config, opts ...Option) *Connection {
	c := &Connection{
		inner:           inner,
		logger:          loglib.NewNoopLogger(),
		backoffProvider: backoff.NewProvider(cfg.backoffConfig()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithLogger(l loglib.Logger) Option {
	return func(c *Connection) {
		c.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "connection_retrier",
		})
	}
}

func (c *Connection) Add(ctx context.Context, docs ...*document.Document) error {
	return c.retry(ctx, "add", func() error {
		return c.inner.Add(ctx, docs...)
	})
}

func (c *Connection) Delete(ctx context.Context, ids ...string) error {
	return c.retry(ctx, "delete", func() error {
		return c.inner.Delete(ctx, ids...)
	})
}

func (c *Connection) DeleteByQuery(ctx context.Context, query string) error {
	return c.retry(ctx, "delete_by_query", func() error {
		return c.inner.DeleteByQuery(ctx, query)
	})
}

func (c *Connection) Commit(ctx context.Context) error {
	return c.retry(ctx, "commit", func() error {
		return c.inner.Commit(ctx)
	})
}

func (c *Connection) retry(ctx context.Context, operation string, fn func() error) error {
	numRetries := 0
	reportErr := func(err error, d time.Duration) {
		c.logger.Warn(err, "connection retrier: operation failed", loglib.Fields{
			"operation": operation,
			"retries":   numRetries,
			"backoff":   d,
		})
		numRetries++
	}

	bo := c.backoffProvider(ctx)
	return bo.RetryNotify(func() error {
		err := fn()
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, reportErr)
}

func isRetryable(err error) bool {
	var retryableErr searchstore.RetryableError
	return errors.As(err, &retryableErr) || errors.Is(err, searchstore.ErrTooManyRequests)
}

func (c *Config) backoffConfig() *backoff.Config {
	if c != nil && (c.Backoff.Constant != nil || c.Backoff.Exponential != nil) {
		return &c.Backoff
	}
	return &backoff.Config{
		Exponential: &backoff.ExponentialConfig{
			InitialInterval: defaultRetryInitialInterval,
			MaxInterval:     defaultRetryMaxInterval,
			MaxRetries:      defaultRetryMaxRetries,
		},
	}
}
