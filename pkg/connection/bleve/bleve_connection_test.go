// SPDX-License-Identifier: Apache-2.0

package bleve

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/pkg/document"
	"github.com/wikyd/sunspot/pkg/session"
	"github.com/wikyd/sunspot/pkg/setup"
)

func newTestConnection(t *testing.T) *Connection {
	t.Helper()
	conn, err := NewConnection(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestDocument(id string, types ...string) *document.Document {
	return &document.Document{
		ID:     id,
		Types:  types,
		Fields: map[string]any{"title_s": "title of " + id},
	}
}

func searchIDs(t *testing.T, conn *Connection, q string) []string {
	t.Helper()
	ids, err := conn.matchingIDs(context.Background(), q)
	require.NoError(t, err)
	sort.Strings(ids)
	return ids
}

func TestConnection_visibleAfterCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newTestConnection(t)

	require.NoError(t, conn.Add(ctx,
		newTestDocument("Post 1", "Post", "BaseClass"),
		newTestDocument("Post 2", "Post", "BaseClass"),
	))
	require.Equal(t, 2, conn.Pending())

	count, err := conn.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	require.NoError(t, conn.Commit(ctx))
	require.Equal(t, 0, conn.Pending())

	count, err = conn.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, []string{"Post 1", "Post 2"}, searchIDs(t, conn, session.TypeQuery("Post")))

	require.NoError(t, conn.Delete(ctx, "Post 1"))
	count, err = conn.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, conn.Commit(ctx))
	count, err = conn.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestConnection_DeleteByQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string

		wantIDs []string
	}{
		{
			name:    "configured class",
			query:   session.TypeQuery("Post"),
			wantIDs: []string{"Comment 1"},
		},
		{
			name:    "ancestor class",
			query:   session.TypeQuery("BaseClass"),
			wantIDs: []string{},
		},
		{
			name:    "class without documents",
			query:   session.TypeQuery("Blog"),
			wantIDs: []string{"Comment 1", "Post 1", "Post 2"},
		},
		{
			name:    "all types",
			query:   session.AllTypesQuery(),
			wantIDs: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			conn := newTestConnection(t)

			require.NoError(t, conn.Add(ctx,
				newTestDocument("Post 1", "Post", "BaseClass"),
				newTestDocument("Post 2", "Post", "BaseClass"),
				newTestDocument("Comment 1", "Comment", "BaseClass"),
			))
			// the delete by query observes the adds queued before it
			require.NoError(t, conn.DeleteByQuery(ctx, tc.query))
			require.NoError(t, conn.Commit(ctx))

			ids := searchIDs(t, conn, session.AllTypesQuery())
			if ids == nil {
				ids = []string{}
			}
			require.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestConnection_operationOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newTestConnection(t)

	require.NoError(t, conn.Add(ctx, newTestDocument("Post 1", "Post")))
	require.NoError(t, conn.DeleteByQuery(ctx, session.AllTypesQuery()))
	require.NoError(t, conn.Add(ctx, newTestDocument("Post 2", "Post")))
	require.NoError(t, conn.Commit(ctx))

	require.Equal(t, []string{"Post 2"}, searchIDs(t, conn, session.AllTypesQuery()))
}

func TestConnection_namespacedClass(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newTestConnection(t)

	require.NoError(t, conn.Add(ctx,
		newTestDocument("Admin::Post 1", "Admin::Post", "Post"),
		newTestDocument("Post 2", "Post"),
	))
	require.NoError(t, conn.Commit(ctx))
	require.Equal(t, []string{"Admin::Post 1"}, searchIDs(t, conn, session.TypeQuery("Admin::Post")))

	require.NoError(t, conn.DeleteByQuery(ctx, session.TypeQuery("Admin::Post")))
	require.NoError(t, conn.Commit(ctx))
	require.Equal(t, []string{"Post 2"}, searchIDs(t, conn, session.AllTypesQuery()))
}

func TestConnection_unsupportedQuery(t *testing.T) {
	t.Parallel()

	conn := newTestConnection(t)
	for _, q := range []string{"title_s:foo", "type:", ""} {
		err := conn.DeleteByQuery(context.Background(), q)
		require.ErrorIs(t, err, errUnsupportedQuery, q)
	}
	require.Equal(t, 0, conn.Pending())
}

func TestConnection_closed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn, err := NewConnection(Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	require.ErrorIs(t, conn.Add(ctx, newTestDocument("Post 1", "Post")), errClosed)
	require.ErrorIs(t, conn.Delete(ctx, "Post 1"), errClosed)
	require.ErrorIs(t, conn.DeleteByQuery(ctx, session.TypeQuery("Post")), errClosed)
	require.ErrorIs(t, conn.Commit(ctx), errClosed)
}

func TestConnection_persistentIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sunspot.bleve")

	conn, err := NewConnection(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, conn.Add(ctx, newTestDocument("Post 1", "Post")))
	require.NoError(t, conn.Commit(ctx))
	require.NoError(t, conn.Close())

	conn, err = NewConnection(Config{Path: path})
	require.NoError(t, err)
	defer conn.Close()

	count, err := conn.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestConnection_withSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := newTestConnection(t)

	s, err := session.New(conn, setup.NewRegistry())
	require.NoError(t, err)

	require.NoError(t, s.RemoveAll(ctx))
	require.True(t, s.IsIndexDirty())
	require.NoError(t, s.Commit(ctx))
	require.False(t, s.IsIndexDirty())
	require.Equal(t, 0, conn.Pending())
}
