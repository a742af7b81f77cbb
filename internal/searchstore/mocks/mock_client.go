// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"net/http"

	"github.com/wikyd/sunspot/internal/searchstore"
)

type Client struct {
	CountFn           func(ctx context.Context, index string) (int, error)
	DeleteByQueryFn   func(ctx context.Context, req *searchstore.DeleteByQueryRequest) error
	IndexExistsFn     func(ctx context.Context, index string) (bool, error)
	PerformFn         func(req *http.Request) (*http.Response, error)
	RefreshIndexFn    func(ctx context.Context, index string) error
	SendBulkRequestFn func(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error)
}

func (m *Client) Count(ctx context.Context, index string) (int, error) {
	return m.CountFn(ctx, index)
}

func (m *Client) DeleteByQuery(ctx context.Context, req *searchstore.DeleteByQueryRequest) error {
	return m.DeleteByQueryFn(ctx, req)
}

func (m *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	return m.IndexExistsFn(ctx, index)
}

func (m *Client) Perform(req *http.Request) (*http.Response, error) {
	return m.PerformFn(req)
}

func (m *Client) RefreshIndex(ctx context.Context, index string) error {
	return m.RefreshIndexFn(ctx, index)
}

func (m *Client) SendBulkRequest(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error) {
	return m.SendBulkRequestFn(ctx, items)
}
