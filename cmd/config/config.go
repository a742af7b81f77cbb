// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/wikyd/sunspot/internal/backoff"
	"github.com/wikyd/sunspot/pkg/commit"
	"github.com/wikyd/sunspot/pkg/connection/bleve"
	"github.com/wikyd/sunspot/pkg/connection/searchstore"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/server"
)

// Config is the runtime configuration of the indexing service.
type Config struct {
	Engine           EngineConfig
	DeclarationsFile string
	Server           server.Config
	Retry            backoff.Config
	Session          SessionConfig
}

// EngineConfig holds the configuration of the one search engine documents
// are sent to.
type EngineConfig struct {
	Search *searchstore.Config
	Bleve  *bleve.Config
}

type SessionConfig struct {
	BuildConcurrency int
}

const defaultLogLevel = "info"

// bleveInMemory as the bleve path keeps the embedded index in memory.
const bleveInMemory = ":memory:"

var (
	errMissingEngine           = errors.New("one of opensearch url, elasticsearch url or bleve path must be provided")
	errMultipleEngines         = errors.New("only one of opensearch url, elasticsearch url or bleve path can be provided")
	errMissingDeclarationsFile = errors.New("declarations file must be provided")
	errInvalidSampleRatio      = errors.New("trace sample ratio must be between 0 and 1")
)

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}

	viper.SetConfigFile(file)
	viper.SetConfigType(filepath.Ext(file)[1:])
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func ParseConfig() (*Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.toConfig()
	}
	return envConfigToConfig()
}

func ParseInstrumentationConfig() (*otel.Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.Instrumentation.toOtelConfig()
	}
	return envToOtelConfig()
}

// ParseCommitConfig reads the commit policy settings from the loaded
// configuration. It is meant to be called on every request, so that changes
// to the settings apply to the next request.
func ParseCommitConfig() (*commit.Config, error) {
	if isYAMLConfig() {
		return commit.ParseUserConfiguration(viper.GetStringMap("commit"))
	}
	return envToCommitConfig()
}

// LogLevel returns the configured log level, with the CLI flag taking
// precedence over the configuration files.
func LogLevel() string {
	switch {
	case viper.GetString("log-level") != "":
		return viper.GetString("log-level")
	case viper.GetString("log.level") != "":
		return viper.GetString("log.level")
	case viper.GetString("SUNSPOT_LOG_LEVEL") != "":
		return viper.GetString("SUNSPOT_LOG_LEVEL")
	default:
		return defaultLogLevel
	}
}

func LogFormat() string {
	switch {
	case viper.GetString("log-format") != "":
		return viper.GetString("log-format")
	case viper.GetString("log.format") != "":
		return viper.GetString("log.format")
	default:
		return viper.GetString("SUNSPOT_LOG_FORMAT")
	}
}

func isYAMLConfig() bool {
	switch filepath.Ext(viper.GetViper().ConfigFileUsed()) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}

func newEngineConfig(opensearchURL, elasticsearchURL, blevePath, index string) (EngineConfig, error) {
	set := 0
	for _, v := range []string{opensearchURL, elasticsearchURL, blevePath} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return EngineConfig{}, errMissingEngine
	case set > 1:
		return EngineConfig{}, errMultipleEngines
	case blevePath != "":
		if blevePath == bleveInMemory {
			blevePath = ""
		}
		return EngineConfig{Bleve: &bleve.Config{Path: blevePath}}, nil
	default:
		return EngineConfig{
			Search: &searchstore.Config{
				OpenSearchURL:    opensearchURL,
				ElasticsearchURL: elasticsearchURL,
				Index:            index,
			},
		}, nil
	}
}

func validateSampleRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 {
		return errInvalidSampleRatio
	}
	return nil
}
