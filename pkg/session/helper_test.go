// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/pkg/document"
	"github.com/wikyd/sunspot/pkg/session/mocks"
	"github.com/wikyd/sunspot/pkg/setup"
)

type testInstance struct {
	class  *setup.Class
	id     string
	values map[string]any
}

func (i *testInstance) Class() *setup.Class                 { return i.class }
func (i *testInstance) PersistentID() string                { return i.id }
func (i *testInstance) FieldValue(name string) (any, error) { return i.values[name], nil }

var (
	baseClass    = setup.NewClass("BaseClass", nil)
	postClass    = setup.NewClass("Post", baseClass)
	commentClass = setup.NewClass("Comment", nil)
	blogClass    = setup.NewClass("Blog", nil)

	errTest = errors.New("oh noes")
)

func newTestRegistry(t *testing.T) *setup.Registry {
	t.Helper()

	r := setup.NewRegistry()
	require.NoError(t, r.Declare(baseClass, "author_name", "string", false, nil))
	require.NoError(t, r.Declare(postClass, "title", "string", false, nil))
	require.NoError(t, r.Declare(postClass, "category_ids", "integer", true, nil))
	require.NoError(t, r.Declare(commentClass, "body", "text", false, nil))
	return r
}

func newTestPost(id string) *testInstance {
	return &testInstance{
		class: postClass,
		id:    id,
		values: map[string]any{
			"title":        "Post " + id,
			"category_ids": []int{3, 14},
		},
	}
}

// recordingConnection is a thread safe in memory connection that keeps track
// of the calls it receives.
type recordingConnection struct {
	mu        sync.Mutex
	added     []*document.Document
	deleted   []string
	queries   []string
	commits   int
	addErr    error
	commitErr error
}

func (c *recordingConnection) Add(_ context.Context, docs ...*document.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.addErr != nil {
		return c.addErr
	}
	c.added = append(c.added, docs...)
	return nil
}

func (c *recordingConnection) Delete(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *recordingConnection) DeleteByQuery(_ context.Context, query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	return nil
}

func (c *recordingConnection) Commit(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	return nil
}

func noopConnection() *mocks.Connection {
	return &mocks.Connection{
		AddFn:           func(context.Context, ...*document.Document) error { return nil },
		DeleteFn:        func(context.Context, ...string) error { return nil },
		DeleteByQueryFn: func(context.Context, string) error { return nil },
		CommitFn:        func(context.Context, uint) error { return nil },
	}
}
