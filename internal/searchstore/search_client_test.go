// SPDX-License-Identifier: Apache-2.0

package searchstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/internal/searchstore"
	"github.com/wikyd/sunspot/internal/searchstore/mocks"
)

func TestEncodeBulkItems(t *testing.T) {
	t.Parallel()

	items := []searchstore.BulkItem{
		{
			Index: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 1"},
			Doc:   map[string]any{"id": "Post 1"},
		},
		{
			Delete: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 2"},
		},
		{
			Index: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 3"},
		},
	}

	buffer := new(bytes.Buffer)
	require.NoError(t, searchstore.EncodeBulkItems(buffer, items))

	want := `{"index":{"_index":"sunspot","_id":"Post 1"}}
{"id":"Post 1"}
{"delete":{"_index":"sunspot","_id":"Post 2"}}
{"index":{"_index":"sunspot","_id":"Post 3"}}
{}
`
	require.Equal(t, want, buffer.String())
}

func TestVerifyResponse(t *testing.T) {
	t.Parallel()

	items := func() []searchstore.BulkItem {
		return []searchstore.BulkItem{
			{Index: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 1"}},
			{Delete: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 2"}},
			{Delete: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 3"}},
		}
	}

	tests := []struct {
		name string
		body string

		wantFailedIDs []string
		wantErr       bool
	}{
		{
			name:          "ok - no errors",
			body:          `{"errors":false,"items":[]}`,
			wantFailedIDs: []string{},
		},
		{
			name: "ok - missing document deletes are not failures",
			body: `{"errors":true,"items":[
				{"index":{"status":400,"error":{"type":"mapper_parsing_exception"}}},
				{"delete":{"status":404}},
				{"delete":{"status":500,"error":{"type":"oops"}}}
			]}`,
			wantFailedIDs: []string{"Post 1", "Post 3"},
		},
		{
			name:    "error - invalid body",
			body:    `{`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			failed, err := searchstore.VerifyResponse([]byte(tc.body), items())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := []string{}
			for _, item := range failed {
				if item.Index != nil {
					ids = append(ids, item.Index.ID)
				} else {
					ids = append(ids, item.Delete.ID)
				}
				require.NotZero(t, item.Status)
			}
			require.Equal(t, tc.wantFailedIDs, ids)
		})
	}
}

func TestSendBulk(t *testing.T) {
	t.Parallel()

	response := func(status int, body string) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
	}

	tests := []struct {
		name    string
		perform func(req *http.Request) (*http.Response, error)

		wantFailed int
		wantErr    func(t *testing.T, err error)
	}{
		{
			name: "ok",
			perform: func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "/_bulk", req.URL.Path)
				require.Equal(t, http.MethodPost, req.Method)
				require.Equal(t, "application/x-ndjson", req.Header.Get("Content-Type"))
				return response(http.StatusOK, `{"errors":false}`), nil
			},
		},
		{
			name: "ok - partial failure",
			perform: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusOK, `{"errors":true,"items":[{"index":{"status":400}}]}`), nil
			},
			wantFailed: 1,
		},
		{
			name: "error - retryable status",
			perform: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusTooManyRequests, `{"error":"slow down"}`), nil
			},
			wantErr: func(t *testing.T, err error) {
				require.ErrorAs(t, err, &searchstore.RetryableError{})
				require.ErrorIs(t, err, searchstore.ErrTooManyRequests)
			},
		},
		{
			name: "error - performing request",
			perform: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("oh noes")
			},
			wantErr: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "oh noes")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			items := []searchstore.BulkItem{
				{Index: &searchstore.BulkIndex{Index: "sunspot", ID: "Post 1"}, Doc: map[string]any{"title_s": "a"}},
			}
			client := &mocks.Client{PerformFn: tc.perform}
			failed, err := searchstore.SendBulk(context.Background(), client, items)
			if tc.wantErr != nil {
				require.Error(t, err)
				tc.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, failed, tc.wantFailed)
		})
	}
}

func TestQueryString(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{"query": "type:Post"},
		},
	}, searchstore.QueryString("type:Post"))
}

func TestParseAddresses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		urls    string
		want    []string
		wantErr bool
	}{
		{
			name: "single node",
			urls: "http://localhost:9200",
			want: []string{"http://localhost:9200"},
		},
		{
			name: "cluster with blanks",
			urls: " http://node1:9200, ,http://node2:9200 ",
			want: []string{"http://node1:9200", "http://node2:9200"},
		},
		{
			name:    "empty",
			urls:    " , ",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			addresses, err := searchstore.ParseAddresses(tc.urls)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, addresses)
		})
	}
}
