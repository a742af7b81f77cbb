// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/pkg/connection/bleve"
	"github.com/wikyd/sunspot/pkg/connection/retrier"
	"github.com/wikyd/sunspot/pkg/connection/searchstore"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/session"
	"github.com/wikyd/sunspot/pkg/session/instrumentation"
	"github.com/wikyd/sunspot/pkg/setup"
)

var errNoEngine = errors.New("no search engine configured")

// indexingSession bundles the session with the registry it builds documents
// from and the engine connection it writes to.
type indexingSession struct {
	*session.Session
	registry *setup.Registry
	close    func() error
}

func newIndexingSession(cfg *config.Config, logger loglib.Logger, inst *otel.Instrumentation) (*indexingSession, error) {
	registry := setup.NewRegistry(setup.WithLogger(logger))
	if err := registry.LoadDeclarationsFile(cfg.DeclarationsFile); err != nil {
		return nil, fmt.Errorf("loading declarations: %w", err)
	}

	conn, closeConn, err := newConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	instrumentedConn, err := instrumentation.NewConnection(conn, inst)
	if err != nil {
		closeConn()
		return nil, err
	}

	s, err := session.New(instrumentedConn, registry,
		session.WithLogger(logger),
		session.WithBuildConcurrency(cfg.Session.BuildConcurrency))
	if err != nil {
		closeConn()
		return nil, err
	}

	return &indexingSession{
		Session:  s,
		registry: registry,
		close:    closeConn,
	}, nil
}

// newConnection returns the engine connection for the configuration on
// input. Remote engine calls are retried, the embedded index is not.
func newConnection(cfg *config.Config, logger loglib.Logger) (session.Connection, func() error, error) {
	noopClose := func() error { return nil }

	switch {
	case cfg.Engine.Bleve != nil:
		conn, err := bleve.NewConnection(*cfg.Engine.Bleve, bleve.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("opening bleve index: %w", err)
		}
		return conn, conn.Close, nil
	case cfg.Engine.Search != nil:
		conn, err := searchstore.NewConnection(*cfg.Engine.Search, searchstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return retrier.NewConnection(conn, &retrier.Config{Backoff: cfg.Retry}, retrier.WithLogger(logger)), noopClose, nil
	default:
		return nil, nil, errNoEngine
	}
}
