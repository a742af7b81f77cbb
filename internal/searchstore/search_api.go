// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonlib "github.com/wikyd/sunspot/internal/json"
)

type DeleteByQueryRequest struct {
	Index   []string
	Query   map[string]any
	Refresh bool
}

// QueryString returns the delete by query body for a query string in the
// engine query syntax.
func QueryString(query string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query": query,
			},
		},
	}
}

type BulkItem struct {
	Index  *BulkIndex      `json:"index,omitempty"`
	Delete *BulkIndex      `json:"delete,omitempty"`
	Doc    map[string]any  `json:"-"`
	Status int             `json:"-"`
	Error  json.RawMessage `json:"-"`
}

type BulkIndex struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type BulkResponseItem struct {
	Index struct {
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error"`
	} `json:"index"`
	Delete struct {
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error"`
	} `json:"delete"`
}

type BulkResponse struct {
	Errors bool `json:"errors"`
	Items  []BulkResponseItem
}

type CountResponse struct {
	Count int `json:"count"`
}

// EncodeBulkItems writes the items on input in the newline delimited bulk
// format: an action line, followed by the document line for index actions.
func EncodeBulkItems(buffer *bytes.Buffer, items []BulkItem) error {
	writeLine := func(v any) error {
		line, err := jsonlib.Marshal(v)
		if err != nil {
			return err
		}
		buffer.Write(line)
		buffer.WriteByte('\n')
		return nil
	}

	for _, item := range items {
		if err := writeLine(item); err != nil {
			return fmt.Errorf("bulk item [%v]: encode item action %w", item, err)
		}

		if item.Delete != nil {
			continue
		}

		if item.Doc == nil {
			buffer.WriteString("{}\n")
			continue
		}

		if err := writeLine(item.Doc); err != nil {
			return fmt.Errorf("bulk item [%v]: encode item document action %w", item, err)
		}
	}

	return nil
}
