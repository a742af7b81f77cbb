// SPDX-License-Identifier: Apache-2.0

package server

import (
	"time"

	"github.com/wikyd/sunspot/pkg/commit"
)

type Config struct {
	// Address for the server to listen on. The format is "host:port". Defaults
	// to ":8983".
	Address string
	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Defaults to 5s.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Defaults to 30s, since a response may wait on an engine
	// commit.
	WriteTimeout time.Duration
	// MaxBodySize limits the size of document request bodies. Defaults to
	// 10M.
	MaxBodySize string
}

// CommitConfigProvider returns the commit policy configuration. It is called
// once per request.
type CommitConfigProvider func() *commit.Config

const (
	defaultServerReadTimeout  = 5 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerAddress      = ":8983"
	defaultMaxBodySize        = "10M"
)

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return defaultServerReadTimeout
}

func (c *Config) writeTimeout() time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	return defaultServerWriteTimeout
}

func (c *Config) address() string {
	if c.Address != "" {
		return c.Address
	}
	return defaultServerAddress
}

func (c *Config) maxBodySize() string {
	if c.MaxBodySize != "" {
		return c.MaxBodySize
	}
	return defaultMaxBodySize
}

func defaultCommitConfig() *commit.Config {
	return &commit.Config{}
}
