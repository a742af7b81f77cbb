// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wikyd/sunspot/internal/json"
)

// Client is the subset of the engine REST API used to index, delete and
// refresh documents.
type Client interface {
	Count(ctx context.Context, index string) (int, error)
	DeleteByQuery(ctx context.Context, req *DeleteByQueryRequest) error
	IndexExists(ctx context.Context, index string) (bool, error)
	Perform(req *http.Request) (*http.Response, error)
	RefreshIndex(ctx context.Context, index string) error
	SendBulkRequest(ctx context.Context, items []BulkItem) ([]BulkItem, error)
}

// CreateReader returns a reader on the JSON representation of the given value.
func CreateReader(value any) (*bytes.Reader, error) {
	bytesValue, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("unexpected marshaling error: %w", err)
	}
	return bytes.NewReader(bytesValue), nil
}

// VerifyResponse returns the bulk items that the engine failed to process,
// with their status and error set.
func VerifyResponse(bodyBytes []byte, items []BulkItem) (failed []BulkItem, err error) {
	var response BulkResponse

	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response from search store: %w (%s)", err, bodyBytes)
	}

	if !response.Errors {
		return []BulkItem{}, nil
	}

	failed = []BulkItem{}
	for i, respItem := range response.Items {
		if i >= len(items) {
			break
		}
		switch {
		case items[i].Index != nil:
			if respItem.Index.Status > 299 {
				items[i].Status = respItem.Index.Status
				items[i].Error = respItem.Index.Error
				failed = append(failed, items[i])
			}
		case items[i].Delete != nil:
			// deleting a document that is not indexed is not a failure
			if respItem.Delete.Status > 299 && respItem.Delete.Status != http.StatusNotFound {
				items[i].Status = respItem.Delete.Status
				items[i].Error = respItem.Delete.Error
				failed = append(failed, items[i])
			}
		}
	}

	return failed, nil
}

// SendBulk encodes the items on input and performs the bulk request with the
// client transport.
func SendBulk(ctx context.Context, client Client, items []BulkItem) ([]BulkItem, error) {
	buffer := new(bytes.Buffer)
	if err := EncodeBulkItems(buffer, items); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/_bulk", buffer)
	if err != nil {
		return nil, fmt.Errorf("new http request: %w", err)
	}
	req.Header.Add("Content-Type", "application/x-ndjson")

	resp, err := client.Perform(req)
	if err != nil {
		return nil, fmt.Errorf("perform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		return nil, ExtractResponseError(resp.Body, resp.StatusCode)
	}

	bodyBytes := new(bytes.Buffer)
	if _, err := bodyBytes.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return VerifyResponse(bodyBytes.Bytes(), items)
}

var errNoAddress = errors.New("no address provided")

// ParseAddresses splits a comma separated list of engine node urls, so a
// client can be pointed at every node of a cluster.
func ParseAddresses(urls string) ([]string, error) {
	addresses := []string{}
	for _, u := range strings.Split(urls, ",") {
		if u = strings.TrimSpace(u); u != "" {
			addresses = append(addresses, u)
		}
	}
	if len(addresses) == 0 {
		return nil, errNoAddress
	}
	return addresses, nil
}
