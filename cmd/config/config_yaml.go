// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/wikyd/sunspot/internal/backoff"
	"github.com/wikyd/sunspot/pkg/otel"
	"github.com/wikyd/sunspot/pkg/server"
)

type YAMLConfig struct {
	Engine           EngineYAMLConfig      `mapstructure:"engine" yaml:"engine"`
	DeclarationsFile string                `mapstructure:"declarations_file" yaml:"declarations_file"`
	Commit           *CommitConfig         `mapstructure:"commit" yaml:"commit"`
	Server           *ServerConfig         `mapstructure:"server" yaml:"server"`
	Session          *SessionYAMLConfig    `mapstructure:"session" yaml:"session"`
	Retry            *BackoffConfig        `mapstructure:"retry" yaml:"retry"`
	Instrumentation  InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
	Log              *LogConfig            `mapstructure:"log" yaml:"log"`
}

type EngineYAMLConfig struct {
	OpenSearchURL    string `mapstructure:"opensearch_url" yaml:"opensearch_url"`
	ElasticsearchURL string `mapstructure:"elasticsearch_url" yaml:"elasticsearch_url"`
	BlevePath        string `mapstructure:"bleve_path" yaml:"bleve_path"`
	Index            string `mapstructure:"index" yaml:"index"`
}

// CommitConfig is only decoded here to document the yaml layout, the commit
// settings are read on every request with ParseCommitConfig.
type CommitConfig struct {
	AutoCommitAfterRequest       *bool `mapstructure:"auto_commit_after_request" yaml:"auto_commit_after_request"`
	AutoCommitAfterDeleteRequest *bool `mapstructure:"auto_commit_after_delete_request" yaml:"auto_commit_after_delete_request"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	// timeouts in seconds
	ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxBodySize  string `mapstructure:"max_body_size" yaml:"max_body_size"`
}

type SessionYAMLConfig struct {
	BuildConcurrency int `mapstructure:"build_concurrency" yaml:"build_concurrency"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

// intervals in milliseconds
type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// in seconds
	CollectionInterval int  `mapstructure:"collection_interval" yaml:"collection_interval"`
	RuntimeMetrics     bool `mapstructure:"runtime_metrics" yaml:"runtime_metrics"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func (c *YAMLConfig) toConfig() (*Config, error) {
	engineCfg, err := newEngineConfig(c.Engine.OpenSearchURL, c.Engine.ElasticsearchURL, c.Engine.BlevePath, c.Engine.Index)
	if err != nil {
		return nil, err
	}

	if c.DeclarationsFile == "" {
		return nil, errMissingDeclarationsFile
	}

	cfg := &Config{
		Engine:           engineCfg,
		DeclarationsFile: c.DeclarationsFile,
		Server:           c.Server.parseServerConfig(),
		Retry:            c.Retry.parseBackoffConfig(),
	}
	if c.Session != nil {
		cfg.Session.BuildConcurrency = c.Session.BuildConcurrency
	}

	return cfg, nil
}

func (c *ServerConfig) parseServerConfig() server.Config {
	if c == nil {
		return server.Config{}
	}
	return server.Config{
		Address:      c.Address,
		ReadTimeout:  time.Duration(c.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(c.WriteTimeout) * time.Second,
		MaxBodySize:  c.MaxBodySize,
	}
}

func (bo *BackoffConfig) parseBackoffConfig() backoff.Config {
	if bo == nil {
		return backoff.Config{}
	}
	return backoff.Config{
		Exponential: bo.parseExponentialBackoffConfig(),
		Constant:    bo.parseConstantBackoffConfig(),
	}
}

func (bo *BackoffConfig) parseExponentialBackoffConfig() *backoff.ExponentialConfig {
	if bo.Exponential == nil {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: time.Duration(bo.Exponential.InitialInterval) * time.Millisecond,
		MaxInterval:     time.Duration(bo.Exponential.MaxInterval) * time.Millisecond,
		MaxRetries:      uint(bo.Exponential.MaxRetries),
	}
}

func (bo *BackoffConfig) parseConstantBackoffConfig() *backoff.ConstantConfig {
	if bo.Constant == nil {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   time.Duration(bo.Constant.Interval) * time.Millisecond,
		MaxRetries: uint(bo.Constant.MaxRetries),
	}
}

func (c InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if c.Metrics != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
			RuntimeMetrics:     c.Metrics.RuntimeMetrics,
		}
	}
	if c.Traces != nil {
		if err := validateSampleRatio(c.Traces.SampleRatio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	return cfg, nil
}
