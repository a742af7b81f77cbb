// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/wikyd/sunspot/pkg/document"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/setup"
)

// Session sends index and delete operations to the engine connection and
// keeps track of whether they still need to be committed. It is safe for
// concurrent use.
type Session struct {
	logger   loglib.Logger
	conn     Connection
	builder  *document.Builder
	registry *setup.Registry
	clock    clockwork.Clock

	buildConcurrency int

	// dirty flags are modelled as generations: a flag is set while its
	// generation is ahead of the last committed one. A commit only clears
	// the generation it observed before calling the connection.
	mu              *sync.Mutex
	indexGen        uint64
	indexCommitted  uint64
	deleteGen       uint64
	deleteCommitted uint64
	lastCommit      time.Time
}

// State is a snapshot of the session dirty flags.
type State struct {
	IndexDirty  bool      `json:"index_dirty"`
	DeleteDirty bool      `json:"delete_dirty"`
	LastCommit  time.Time `json:"last_commit,omitempty"`
}

type Option func(*Session)

const defaultBuildConcurrency = 8

var (
	errNilConnection = errors.New("session connection must not be nil")
	errNilRegistry   = errors.New("session registry must not be nil")
)

func New(conn Connection, registry *setup.Registry, opts ...Option) (*Session, error) {
	if conn == nil {
		return nil, errNilConnection
	}
	if registry == nil {
		return nil, errNilRegistry
	}

	s := &Session{
		logger:           loglib.NewNoopLogger(),
		conn:             conn,
		registry:         registry,
		clock:            clockwork.NewRealClock(),
		buildConcurrency: defaultBuildConcurrency,
		mu:               &sync.Mutex{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.builder = document.NewBuilder(registry, document.WithLogger(s.logger))

	return s, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Session) {
		s.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "indexing_session",
		})
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithBuildConcurrency limits the number of documents built in parallel by a
// single Index call.
func WithBuildConcurrency(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.buildConcurrency = n
		}
	}
}

// Index builds the documents for the instances on input and adds them to the
// engine in a single connection call. Build errors are returned before
// anything is sent.
func (s *Session) Index(ctx context.Context, instances ...setup.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	docs, err := s.buildDocuments(ctx, instances)
	if err != nil {
		return err
	}

	if err := s.conn.Add(ctx, docs...); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	s.mu.Lock()
	s.indexGen++
	s.mu.Unlock()

	s.logger.Debug("documents indexed", loglib.Fields{"count": len(docs)})
	return nil
}

// IndexAndCommit indexes the instances and commits immediately afterwards.
func (s *Session) IndexAndCommit(ctx context.Context, instances ...setup.Instance) error {
	if err := s.Index(ctx, instances...); err != nil {
		return err
	}
	return s.Commit(ctx)
}

// Remove deletes the documents for the instances on input by id.
func (s *Session) Remove(ctx context.Context, instances ...setup.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	ids := make([]string, 0, len(instances))
	for _, instance := range instances {
		id, err := s.builder.DocumentID(instance)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if err := s.conn.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	s.mu.Lock()
	s.deleteGen++
	s.mu.Unlock()

	s.logger.Debug("documents removed", loglib.Fields{"ids": ids})
	return nil
}

// RemoveAll deletes every document of the classes on input, or every indexed
// document if no class is given.
func (s *Session) RemoveAll(ctx context.Context, classes ...*setup.Class) error {
	if len(classes) == 0 {
		return s.deleteByQuery(ctx, AllTypesQuery())
	}

	queries := make([]string, 0, len(classes))
	for _, class := range classes {
		name, err := s.registry.ConfiguredName(class)
		if err != nil {
			return err
		}
		queries = append(queries, TypeQuery(name))
	}

	for _, query := range queries {
		if err := s.deleteByQuery(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// CommitIfDirty commits if any document has been indexed since the last
// index commit. It is a noop otherwise.
func (s *Session) CommitIfDirty(ctx context.Context) error {
	s.mu.Lock()
	gen := s.indexGen
	dirty := gen > s.indexCommitted
	s.mu.Unlock()

	if !dirty {
		return nil
	}

	if err := s.conn.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	s.mu.Lock()
	s.indexCommitted = max(s.indexCommitted, gen)
	s.lastCommit = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("committed index operations")
	return nil
}

// CommitIfDeleteDirty commits if any document has been deleted since the last
// delete commit. It is a noop otherwise.
func (s *Session) CommitIfDeleteDirty(ctx context.Context) error {
	s.mu.Lock()
	gen := s.deleteGen
	dirty := gen > s.deleteCommitted
	s.mu.Unlock()

	if !dirty {
		return nil
	}

	if err := s.conn.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	s.mu.Lock()
	s.deleteCommitted = max(s.deleteCommitted, gen)
	s.lastCommit = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("committed delete operations")
	return nil
}

// Commit unconditionally commits and clears both dirty flags.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	indexGen, deleteGen := s.indexGen, s.deleteGen
	s.mu.Unlock()

	if err := s.conn.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	s.mu.Lock()
	s.indexCommitted = max(s.indexCommitted, indexGen)
	s.deleteCommitted = max(s.deleteCommitted, deleteGen)
	s.lastCommit = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("committed")
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		IndexDirty:  s.indexGen > s.indexCommitted,
		DeleteDirty: s.deleteGen > s.deleteCommitted,
		LastCommit:  s.lastCommit,
	}
}

func (s *Session) IsIndexDirty() bool {
	return s.State().IndexDirty
}

func (s *Session) IsDeleteDirty() bool {
	return s.State().DeleteDirty
}

func (s *Session) deleteByQuery(ctx context.Context, query string) error {
	if err := s.conn.DeleteByQuery(ctx, query); err != nil {
		return fmt.Errorf("deleting documents by query [%s]: %w", query, err)
	}

	s.mu.Lock()
	s.indexGen++
	s.deleteGen++
	s.mu.Unlock()

	s.logger.Debug("documents removed by query", loglib.Fields{"query": query})
	return nil
}

func (s *Session) buildDocuments(ctx context.Context, instances []setup.Instance) ([]*document.Document, error) {
	docs := make([]*document.Document, len(instances))
	if len(instances) == 1 {
		doc, err := s.builder.Build(instances[0])
		if err != nil {
			return nil, err
		}
		docs[0] = doc
		return docs, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.buildConcurrency)
	for i, instance := range instances {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := s.builder.Build(instance)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
