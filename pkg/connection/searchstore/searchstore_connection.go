// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wikyd/sunspot/internal/searchstore"
	elasticsearchstore "github.com/wikyd/sunspot/internal/searchstore/elasticsearch"
	opensearchstore "github.com/wikyd/sunspot/internal/searchstore/opensearch"
	"github.com/wikyd/sunspot/pkg/document"
	loglib "github.com/wikyd/sunspot/pkg/log"
)

// Connection sends session operations to an OpenSearch or Elasticsearch
// index. Documents are indexed with the bulk API and become visible to
// queries once the index is refreshed on commit.
type Connection struct {
	logger loglib.Logger
	client searchstore.Client
	index  string
}

type Config struct {
	OpenSearchURL    string
	ElasticsearchURL string
	// Index defaults to "sunspot"
	Index string
}

type Option func(*Connection)

const defaultIndex = "sunspot"

func (c *Config) index() string {
	if c.Index != "" {
		return c.Index
	}
	return defaultIndex
}

func NewConnection(cfg Config, opts ...Option) (*Connection, error) {
	var client searchstore.Client
	var err error
	switch {
	case cfg.OpenSearchURL != "" && cfg.ElasticsearchURL != "":
		return nil, errors.New("only one engine URL must be provided")
	case cfg.OpenSearchURL == "" && cfg.ElasticsearchURL == "":
		return nil, errors.New("an engine URL must be provided")
	case cfg.OpenSearchURL != "":
		client, err = opensearchstore.NewClient(cfg.OpenSearchURL)
	case cfg.ElasticsearchURL != "":
		client, err = elasticsearchstore.NewClient(cfg.ElasticsearchURL)
	}
	if err != nil {
		return nil, fmt.Errorf("create search store client: %w", err)
	}

	return NewConnectionWithClient(client, cfg.index(), opts...), nil
}

func NewConnectionWithClient(client searchstore.Client, index string, opts ...Option) *Connection {
	c := &Connection{
		logger: loglib.NewNoopLogger(),
		client: client,
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
			loglib.ModuleField: "searchstore_connection",
			"index":            c.index,
		})
	}
}

func (c *Connection) Add(ctx context.Context, docs ...*document.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]searchstore.BulkItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, searchstore.BulkItem{
			Index: &searchstore.BulkIndex{Index: c.index, ID: doc.ID},
			Doc:   doc.Map(),
		})
	}

	return c.sendBulk(ctx, items)
}

func (c *Connection) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	items := make([]searchstore.BulkItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, searchstore.BulkItem{
			Delete: &searchstore.BulkIndex{Index: c.index, ID: id},
		})
	}

	return c.sendBulk(ctx, items)
}

// DeleteByQuery deletes every document matching the query string. A missing
// index has nothing to delete.
func (c *Connection) DeleteByQuery(ctx context.Context, query string) error {
	err := c.client.DeleteByQuery(ctx, &searchstore.DeleteByQueryRequest{
		Index: []string{c.index},
		Query: searchstore.QueryString(query),
	})
	if err != nil && !errors.Is(err, searchstore.ErrResourceNotFound) {
		return err
	}
	return nil
}

// Commit refreshes the index, making all previous operations visible to
// queries.
func (c *Connection) Commit(ctx context.Context) error {
	err := c.client.RefreshIndex(ctx, c.index)
	if err != nil && !errors.Is(err, searchstore.ErrResourceNotFound) {
		return err
	}
	return nil
}

// Count returns the number of searchable documents in the index.
func (c *Connection) Count(ctx context.Context) (int, error) {
	exists, err := c.client.IndexExists(ctx, c.index)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return c.client.Count(ctx, c.index)
}

func (c *Connection) sendBulk(ctx context.Context, items []searchstore.BulkItem) error {
	failed, err := c.client.SendBulkRequest(ctx, items)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return nil
	}

	c.logger.Error(nil, "bulk request items failed", loglib.Fields{
		"items":  len(items),
		"failed": len(failed),
	})

	bulkErr := searchstore.ErrBulkFailures{Failed: failed}
	if allRetryable(failed) {
		return searchstore.RetryableError{Cause: bulkErr}
	}
	return bulkErr
}

func allRetryable(items []searchstore.BulkItem) bool {
	for _, item := range items {
		switch item.Status {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusRequestTimeout:
		default:
			return false
		}
	}
	return true
}
