// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/wikyd/sunspot/pkg/session"
	"github.com/wikyd/sunspot/pkg/setup"
)

type Session struct {
	IndexFn               func(ctx context.Context, instances ...setup.Instance) error
	RemoveFn              func(ctx context.Context, instances ...setup.Instance) error
	RemoveAllFn           func(ctx context.Context, classes ...*setup.Class) error
	CommitFn              func(ctx context.Context) error
	CommitIfDirtyFn       func(ctx context.Context) error
	CommitIfDeleteDirtyFn func(ctx context.Context) error
	StateFn               func() session.State

	commitIfDirtyCalls       uint64
	commitIfDeleteDirtyCalls uint64
}

func (m *Session) Index(ctx context.Context, instances ...setup.Instance) error {
	return m.IndexFn(ctx, instances...)
}

func (m *Session) Remove(ctx context.Context, instances ...setup.Instance) error {
	return m.RemoveFn(ctx, instances...)
}

func (m *Session) RemoveAll(ctx context.Context, classes ...*setup.Class) error {
	return m.RemoveAllFn(ctx, classes...)
}

func (m *Session) Commit(ctx context.Context) error {
	return m.CommitFn(ctx)
}

func (m *Session) CommitIfDirty(ctx context.Context) error {
	atomic.AddUint64(&m.commitIfDirtyCalls, 1)
	if m.CommitIfDirtyFn == nil {
		return nil
	}
	return m.CommitIfDirtyFn(ctx)
}

func (m *Session) CommitIfDeleteDirty(ctx context.Context) error {
	atomic.AddUint64(&m.commitIfDeleteDirtyCalls, 1)
	if m.CommitIfDeleteDirtyFn == nil {
		return nil
	}
	return m.CommitIfDeleteDirtyFn(ctx)
}

func (m *Session) State() session.State {
	return m.StateFn()
}

func (m *Session) CommitIfDirtyCalls() uint {
	return uint(atomic.LoadUint64(&m.commitIfDirtyCalls))
}

func (m *Session) CommitIfDeleteDirtyCalls() uint {
	return uint(atomic.LoadUint64(&m.commitIfDeleteDirtyCalls))
}
