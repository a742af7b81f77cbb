// SPDX-License-Identifier: Apache-2.0

package bleve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/wikyd/sunspot/pkg/document"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/session"
)

// Connection keeps documents in an embedded bleve index. Operations are
// queued and only applied to the index on Commit, so nothing sent through
// the connection is searchable until it has been committed.
type Connection struct {
	logger loglib.Logger
	index  bleve.Index

	mu      sync.Mutex
	pending []operation
	closed  bool
}

type Config struct {
	// Path of the on disk index. An empty path keeps the index in memory.
	Path string
}

type Option func(*Connection)

type operationKind uint8

const (
	addOperation operationKind = iota
	deleteOperation
	deleteByQueryOperation
)

type operation struct {
	kind  operationKind
	id    string
	doc   map[string]any
	query string
}

var (
	errClosed           = errors.New("bleve connection is closed")
	errUnsupportedQuery = errors.New("unsupported delete query")
)

func NewConnection(cfg Config, opts ...Option) (*Connection, error) {
	index, err := openIndex(cfg.Path)
	if err != nil {
		return nil, err
	}

	return newConnection(index, opts...), nil
}

func newConnection(index bleve.Index, opts ...Option) *Connection {
	c := &Connection{
		logger: loglib.NewNoopLogger(),
		index:  index,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithLogger(l loglib.Logger) Option {
	return func(c *Connection) {
		c.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "bleve_connection",
		})
	}
}

func openIndex(path string) (bleve.Index, error) {
	indexMapping := newIndexMapping()
	if path == "" {
		index, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, fmt.Errorf("creating in memory index: %w", err)
		}
		return index, nil
	}

	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", path, err)
	}
	return index, nil
}

// newIndexMapping maps the id and type fields as keywords so type queries
// match configured class names exactly. Every other field is mapped
// dynamically.
func newIndexMapping() *mapping.IndexMappingImpl {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(document.IDField, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(document.TypeField, bleve.NewKeywordFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (c *Connection) Add(_ context.Context, docs ...*document.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	for _, doc := range docs {
		c.pending = append(c.pending, operation{kind: addOperation, id: doc.ID, doc: doc.Map()})
	}
	return nil
}

func (c *Connection) Delete(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	for _, id := range ids {
		c.pending = append(c.pending, operation{kind: deleteOperation, id: id})
	}
	return nil
}

func (c *Connection) DeleteByQuery(_ context.Context, q string) error {
	// validate eagerly so a bad query fails the session call instead of the
	// following commit
	if _, err := parseQuery(q); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	c.pending = append(c.pending, operation{kind: deleteByQueryOperation, query: q})
	return nil
}

// Commit applies the queued operations in the order they were received.
// Adds and deletes are grouped in batches, a delete by query flushes the
// current batch so it observes every operation queued before it. On error
// the operations that were not applied stay queued.
func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}

	batch := c.index.NewBatch()
	batchStart := 0
	flush := func(next int) error {
		if batch.Size() == 0 {
			batchStart = next
			return nil
		}
		if err := c.index.Batch(batch); err != nil {
			c.pending = c.pending[batchStart:]
			return fmt.Errorf("applying batch: %w", err)
		}
		batch.Reset()
		batchStart = next
		return nil
	}

	for i, op := range c.pending {
		if err := ctx.Err(); err != nil {
			c.pending = c.pending[batchStart:]
			return err
		}

		switch op.kind {
		case addOperation:
			if err := batch.Index(op.id, op.doc); err != nil {
				c.pending = c.pending[batchStart:]
				return fmt.Errorf("indexing document %s: %w", op.id, err)
			}
		case deleteOperation:
			batch.Delete(op.id)
		case deleteByQueryOperation:
			if err := flush(i); err != nil {
				return err
			}
			deleted, err := c.deleteMatching(ctx, op.query)
			if err != nil {
				c.pending = c.pending[i:]
				return err
			}
			c.logger.Debug("deleted by query", loglib.Fields{"query": op.query, "deleted": deleted})
			batchStart = i + 1
		}
	}

	if err := flush(len(c.pending)); err != nil {
		return err
	}

	c.logger.Debug("commit applied", loglib.Fields{"operations": len(c.pending)})
	c.pending = nil
	return nil
}

// Count returns the number of committed documents.
func (c *Connection) Count(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, errClosed
	}
	count, err := c.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(count), nil
}

// Pending returns the number of operations waiting for a commit.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = nil
	return c.index.Close()
}

func (c *Connection) deleteMatching(ctx context.Context, q string) (int, error) {
	ids, err := c.matchingIDs(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	batch := c.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := c.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("deleting documents matching %q: %w", q, err)
	}
	return len(ids), nil
}

func (c *Connection) matchingIDs(ctx context.Context, q string) ([]string, error) {
	parsed, err := parseQuery(q)
	if err != nil {
		return nil, err
	}

	count, err := c.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(parsed)
	req.Size = int(count)
	req.Fields = []string{}

	result, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q, err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// parseQuery translates the session delete queries to bleve queries. Class
// names are matched as exact terms on the keyword type field, so they need
// no query string escaping ("Admin::Post"). The open range over the type
// field matches every document.
func parseQuery(q string) (query.Query, error) {
	if q == session.AllTypesQuery() {
		return bleve.NewMatchAllQuery(), nil
	}

	className, found := strings.CutPrefix(q, document.TypeField+":")
	if !found || className == "" {
		return nil, fmt.Errorf("%w: %q", errUnsupportedQuery, q)
	}
	termQuery := bleve.NewTermQuery(className)
	termQuery.SetField(document.TypeField)
	return termQuery, nil
}
