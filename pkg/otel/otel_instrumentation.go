// SPDX-License-Identifier: Apache-2.0

package otel

import "context"

type InstrumentationProvider interface {
	NewInstrumentation(name string) *Instrumentation
	Close() error
}

type noopProvider struct{}

func (p *noopProvider) NewInstrumentation(name string) *Instrumentation {
	return nil
}

func (p *noopProvider) Close() error {
	return nil
}

// NewInstrumentationProvider returns a provider exporting to the configured
// collectors. If neither metrics nor traces are configured, instrumentation
// is disabled and the provider hands out nil instrumentations.
func NewInstrumentationProvider(ctx context.Context, cfg *Config) (InstrumentationProvider, error) {
	if cfg == nil || (cfg.Metrics == nil && cfg.Traces == nil) {
		return &noopProvider{}, nil
	}
	return NewProvider(ctx, cfg)
}
