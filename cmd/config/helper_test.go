// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/internal/backoff"
	"github.com/wikyd/sunspot/pkg/commit"
	"github.com/wikyd/sunspot/pkg/connection/searchstore"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/server"
)

func boolPtr(b bool) *bool { return &b }

// validates the configuration produced from the test configuration files in
// the test directory.
func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	wantConfig := &Config{
		Engine: EngineConfig{
			Search: &searchstore.Config{
				OpenSearchURL: "http://localhost:9200",
				Index:         "sunspot_test",
			},
		},
		DeclarationsFile: "declarations.yaml",
		Server: server.Config{
			Address:      "localhost:8983",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodySize:  "5M",
		},
		Retry: backoff.Config{
			Exponential: &backoff.ExponentialConfig{
				InitialInterval: time.Second,
				MaxInterval:     time.Minute,
				MaxRetries:      5,
			},
		},
		Session: SessionConfig{
			BuildConcurrency: 4,
		},
	}

	require.Equal(t, wantConfig, cfg)
}

func validateTestOtelConfig(t *testing.T, otelConfig *otel.Config) {
	t.Helper()

	assert.Equal(t, "http://localhost:4317", otelConfig.Metrics.Endpoint)
	assert.Equal(t, 60*time.Second, otelConfig.Metrics.CollectionInterval)
	assert.True(t, otelConfig.Metrics.RuntimeMetrics)

	assert.Equal(t, "http://localhost:4317", otelConfig.Traces.Endpoint)
	assert.Equal(t, 0.5, otelConfig.Traces.SampleRatio)
}

func validateTestCommitConfig(t *testing.T, commitConfig *commit.Config) {
	t.Helper()

	require.Equal(t, &commit.Config{
		AutoCommitAfterRequest:       boolPtr(false),
		AutoCommitAfterDeleteRequest: boolPtr(true),
	}, commitConfig)
	require.Equal(t, commit.CommitIfDeleteDirty, commit.Decide(commitConfig, true))
}
