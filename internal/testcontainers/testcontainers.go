// SPDX-License-Identifier: Apache-2.0

package testcontainers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
	"github.com/testcontainers/testcontainers-go/modules/opensearch"
)

type cleanup func() error

// Engine identifies the search engine container to start.
type Engine string

const (
	OpenSearch    Engine = "opensearch"
	Elasticsearch Engine = "elasticsearch"
)

const (
	openSearchImage    = "opensearchproject/opensearch:2.11.1"
	elasticsearchImage = "docker.elastic.co/elasticsearch/elasticsearch:8.9.0"
)

// Setup starts the search engine container and sets the url to its address.
// The returned cleanup terminates the container.
func (e Engine) Setup(ctx context.Context, url *string) (cleanup, error) {
	switch e {
	case Elasticsearch:
		return setupElasticsearchContainer(ctx, url)
	case OpenSearch:
		return setupOpenSearchContainer(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported engine container: %q", e)
	}
}

func setupElasticsearchContainer(ctx context.Context, url *string) (cleanup, error) {
	// security disabled so that the engine is reachable over plain http
	ctr, err := elasticsearch.Run(ctx, elasticsearchImage,
		testcontainers.WithEnv(map[string]string{"xpack.security.enabled": "false"}))
	if err != nil {
		return nil, fmt.Errorf("failed to start elasticsearch container: %w", err)
	}

	*url = ctr.Settings.Address

	return terminate(ctr), nil
}

func setupOpenSearchContainer(ctx context.Context, url *string) (cleanup, error) {
	ctr, err := opensearch.Run(ctx, openSearchImage)
	if err != nil {
		return nil, fmt.Errorf("failed to start opensearch container: %w", err)
	}

	*url, err = ctr.Address(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, fmt.Errorf("retrieving url for opensearch container: %w", err)
	}

	return terminate(ctr), nil
}

func terminate(ctr testcontainers.Container) cleanup {
	return func() error {
		return testcontainers.TerminateContainer(ctr)
	}
}
