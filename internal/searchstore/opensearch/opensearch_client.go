// SPDX-License-Identifier: Apache-2.0

package opensearch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"github.com/wikyd/sunspot/internal/json"
	"github.com/wikyd/sunspot/internal/searchstore"
)

// Client talks to OpenSearch through the official client library. Bulk requests
// go through the raw transport.
type Client struct {
	client *opensearch.Client
}

const engineName = "OpenSearch"

// NewClient returns a client for the comma separated node urls on input.
func NewClient(urls string) (*Client, error) {
	addresses, err := searchstore.ParseAddresses(urls)
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	c, err := opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
		Transport: http.DefaultTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}
	return &Client{client: c}, nil
}

func (c *Client) Count(ctx context.Context, index string) (int, error) {
	res, err := c.client.Count(
		c.client.Count.WithIndex(index),
		c.client.Count.WithContext(ctx))
	if err := checkResponse("Count", res, err); err != nil {
		return 0, err
	}
	defer res.Body.Close()

	count := &searchstore.CountResponse{}
	if err := json.NewDecoder(res.Body).Decode(count); err != nil {
		return 0, fmt.Errorf("[Count] decoding %s response: %w", engineName, err)
	}
	return count.Count, nil
}

func (c *Client) DeleteByQuery(ctx context.Context, req *searchstore.DeleteByQueryRequest) error {
	body, err := searchstore.CreateReader(req.Query)
	if err != nil {
		return err
	}

	res, err := c.client.DeleteByQuery(req.Index, body,
		c.client.DeleteByQuery.WithContext(ctx),
		c.client.DeleteByQuery.WithSlices("auto"),
		c.client.DeleteByQuery.WithWaitForCompletion(true),
		c.client.DeleteByQuery.WithRefresh(req.Refresh),
	)
	if err := checkResponse("DeleteByQuery", res, err); err != nil {
		return err
	}
	return res.Body.Close()
}

// IndexExists reports whether the index exists. A missing index is not an
// error.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.client.Indices.Exists([]string{index},
		c.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("[IndexExists] %s request: %w", engineName, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("[IndexExists] %s response: [%d]", engineName, res.StatusCode)
	}
}

func (c *Client) RefreshIndex(ctx context.Context, index string) error {
	res, err := c.client.Indices.Refresh(
		c.client.Indices.Refresh.WithIndex(index),
		c.client.Indices.Refresh.WithContext(ctx),
	)
	if err := checkResponse("RefreshIndex", res, err); err != nil {
		return err
	}
	return res.Body.Close()
}

func (c *Client) Perform(req *http.Request) (*http.Response, error) {
	return c.client.Transport.Perform(req)
}

// SendBulkRequest performs the index and delete items in a single call and
// returns the items the engine rejected.
func (c *Client) SendBulkRequest(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error) {
	failed, err := searchstore.SendBulk(ctx, c, items)
	if err != nil {
		return nil, fmt.Errorf("[SendBulkRequest] %s: %w", engineName, err)
	}
	return failed, nil
}

// checkResponse returns the transport error or the classified error response
// of a call. The body is closed on error.
func checkResponse(op string, res *opensearchapi.Response, err error) error {
	if err != nil {
		return fmt.Errorf("[%s] %s request: %w", op, engineName, err)
	}
	if err := searchstore.IsErrResponse(apiResponse{res}); err != nil {
		res.Body.Close()
		return fmt.Errorf("[%s] %s response: %w", op, engineName, err)
	}
	return nil
}

type apiResponse struct {
	*opensearchapi.Response
}

func (r apiResponse) GetBody() io.ReadCloser {
	return r.Body
}

func (r apiResponse) GetStatusCode() int {
	return r.StatusCode
}
