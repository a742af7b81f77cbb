// SPDX-License-Identifier: Apache-2.0

package commit

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config controls the commit issued at the end of a mutating request. Unset
// values take their defaults: commit after every request, and no delete only
// commit.
type Config struct {
	AutoCommitAfterRequest       *bool `mapstructure:"auto_commit_after_request"`
	AutoCommitAfterDeleteRequest *bool `mapstructure:"auto_commit_after_delete_request"`
}

// Decision is the commit call to issue once a request completes.
type Decision uint

const (
	NoCommit Decision = iota
	CommitIfDirty
	CommitIfDeleteDirty
)

func (d Decision) String() string {
	switch d {
	case NoCommit:
		return "none"
	case CommitIfDirty:
		return "commit_if_dirty"
	case CommitIfDeleteDirty:
		return "commit_if_delete_dirty"
	default:
		return fmt.Sprintf("unknown(%d)", uint(d))
	}
}

// Committer is the subset of the indexing session used by the policy.
type Committer interface {
	CommitIfDirty(ctx context.Context) error
	CommitIfDeleteDirty(ctx context.Context) error
}

func (c *Config) autoCommitAfterRequest() bool {
	if c == nil || c.AutoCommitAfterRequest == nil {
		return true
	}
	return *c.AutoCommitAfterRequest
}

func (c *Config) autoCommitAfterDeleteRequest() bool {
	if c == nil || c.AutoCommitAfterDeleteRequest == nil {
		return false
	}
	return *c.AutoCommitAfterDeleteRequest
}

// Decide returns the commit call for a completed request. Requests that did
// not mutate anything never commit.
func Decide(cfg *Config, mutating bool) Decision {
	if !mutating {
		return NoCommit
	}

	switch {
	case cfg.autoCommitAfterRequest():
		return CommitIfDirty
	case cfg.autoCommitAfterDeleteRequest():
		return CommitIfDeleteDirty
	default:
		return NoCommit
	}
}

// Apply issues at most one commit call on the committer, as decided for the
// request.
func Apply(ctx context.Context, cfg *Config, mutating bool, committer Committer) (Decision, error) {
	decision := Decide(cfg, mutating)
	switch decision {
	case CommitIfDirty:
		return decision, committer.CommitIfDirty(ctx)
	case CommitIfDeleteDirty:
		return decision, committer.CommitIfDeleteDirty(ctx)
	default:
		return decision, nil
	}
}

// ParseUserConfiguration decodes the commit settings from a user
// configuration map. Boolean values may be given as strings.
func ParseUserConfiguration(userConfig map[string]any) (*Config, error) {
	cfg := &Config{}
	if len(userConfig) == 0 {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(userConfig); err != nil {
		return nil, fmt.Errorf("decoding commit configuration: %w", err)
	}
	return cfg, nil
}
