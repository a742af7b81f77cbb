// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"

	"github.com/wikyd/sunspot/pkg/document"
)

// Connection is the transport to the search engine. Add and delete operations
// are only guaranteed to be visible to queries after a successful Commit.
type Connection interface {
	Add(ctx context.Context, docs ...*document.Document) error
	Delete(ctx context.Context, ids ...string) error
	DeleteByQuery(ctx context.Context, query string) error
	Commit(ctx context.Context) error
}

const (
	// matches every document that has a type, which all indexed documents do
	allTypesQuery = document.TypeField + ":[* TO *]"
)

// TypeQuery returns the delete query matching all documents of the
// configured class name on input.
func TypeQuery(className string) string {
	return document.TypeField + ":" + className
}

// AllTypesQuery returns the delete query matching every indexed document.
func AllTypesQuery() string {
	return allTypesQuery
}
