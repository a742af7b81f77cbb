// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/wikyd/sunspot/pkg/document"
)

type Connection struct {
	AddFn           func(ctx context.Context, docs ...*document.Document) error
	DeleteFn        func(ctx context.Context, ids ...string) error
	DeleteByQueryFn func(ctx context.Context, query string) error
	CommitFn        func(ctx context.Context, i uint) error

	commitCalls uint64
}

func (m *Connection) Add(ctx context.Context, docs ...*document.Document) error {
	return m.AddFn(ctx, docs...)
}

func (m *Connection) Delete(ctx context.Context, ids ...string) error {
	return m.DeleteFn(ctx, ids...)
}

func (m *Connection) DeleteByQuery(ctx context.Context, query string) error {
	return m.DeleteByQueryFn(ctx, query)
}

func (m *Connection) Commit(ctx context.Context) error {
	return m.CommitFn(ctx, uint(atomic.AddUint64(&m.commitCalls, 1)))
}

func (m *Connection) CommitCalls() uint {
	return uint(atomic.LoadUint64(&m.commitCalls))
}
