// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/spf13/viper"

	"github.com/wikyd/sunspot/internal/backoff"
	"github.com/wikyd/sunspot/pkg/commit"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/server"
)

func envConfigToConfig() (*Config, error) {
	engineCfg, err := newEngineConfig(
		viper.GetString("SUNSPOT_OPENSEARCH_URL"),
		viper.GetString("SUNSPOT_ELASTICSEARCH_URL"),
		viper.GetString("SUNSPOT_BLEVE_PATH"),
		viper.GetString("SUNSPOT_INDEX"),
	)
	if err != nil {
		return nil, err
	}

	declarationsFile := viper.GetString("SUNSPOT_DECLARATIONS_FILE")
	if declarationsFile == "" {
		return nil, errMissingDeclarationsFile
	}

	return &Config{
		Engine:           engineCfg,
		DeclarationsFile: declarationsFile,
		Server:           parseServerConfig(),
		Retry:            parseBackoffConfig("SUNSPOT_RETRY"),
		Session: SessionConfig{
			BuildConcurrency: viper.GetInt("SUNSPOT_SESSION_BUILD_CONCURRENCY"),
		},
	}, nil
}

func parseServerConfig() server.Config {
	return server.Config{
		Address:      viper.GetString("SUNSPOT_SERVER_ADDRESS"),
		ReadTimeout:  viper.GetDuration("SUNSPOT_SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SUNSPOT_SERVER_WRITE_TIMEOUT"),
		MaxBodySize:  viper.GetString("SUNSPOT_SERVER_MAX_BODY_SIZE"),
	}
}

func parseBackoffConfig(prefix string) backoff.Config {
	return backoff.Config{
		Exponential: parseExponentialBackoffConfig(prefix),
		Constant:    parseConstantBackoffConfig(prefix),
	}
}

func parseExponentialBackoffConfig(prefix string) *backoff.ExponentialConfig {
	initialInterval := viper.GetDuration(prefix + "_EXP_BACKOFF_INITIAL_INTERVAL")
	maxInterval := viper.GetDuration(prefix + "_EXP_BACKOFF_MAX_INTERVAL")
	maxRetries := viper.GetUint(prefix + "_EXP_BACKOFF_MAX_RETRIES")
	if initialInterval == 0 && maxInterval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxRetries:      maxRetries,
	}
}

func parseConstantBackoffConfig(prefix string) *backoff.ConstantConfig {
	interval := viper.GetDuration(prefix + "_BACKOFF_INTERVAL")
	maxRetries := viper.GetUint(prefix + "_BACKOFF_MAX_RETRIES")
	if interval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   interval,
		MaxRetries: maxRetries,
	}
}

func envToOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}

	if endpoint := viper.GetString("SUNSPOT_METRICS_ENDPOINT"); endpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           endpoint,
			CollectionInterval: viper.GetDuration("SUNSPOT_METRICS_COLLECTION_INTERVAL"),
			RuntimeMetrics:     viper.GetBool("SUNSPOT_METRICS_RUNTIME"),
		}
	}

	if endpoint := viper.GetString("SUNSPOT_TRACES_ENDPOINT"); endpoint != "" {
		ratio := viper.GetFloat64("SUNSPOT_TRACES_SAMPLE_RATIO")
		if err := validateSampleRatio(ratio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    endpoint,
			SampleRatio: ratio,
		}
	}

	return cfg, nil
}

var commitEnvKeys = map[string]string{
	"auto_commit_after_request":        "SUNSPOT_AUTO_COMMIT_AFTER_REQUEST",
	"auto_commit_after_delete_request": "SUNSPOT_AUTO_COMMIT_AFTER_DELETE_REQUEST",
}

// unset variables are left out so the commit policy defaults apply
func envToCommitConfig() (*commit.Config, error) {
	userConfig := map[string]any{}
	for key, envKey := range commitEnvKeys {
		if v := viper.GetString(envKey); v != "" {
			userConfig[key] = v
		}
	}
	return commit.ParseUserConfiguration(userConfig)
}
