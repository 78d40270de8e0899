package testsupport

import (
	"path/filepath"
	"testing"

	"satchel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.QueueDir = filepath.Join(base, "queue")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Links.Secret = "test-secret-0123456789abcdef"
	cfgVal.Links.Host = "share.example.com"
	cfgVal.Pipeline.ProviderTimeout = 5
	cfgVal.Pipeline.PollInterval = 1
	cfgVal.WebPreview.Enabled = false

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLinkSecret overrides the share-link signing secret.
func WithLinkSecret(secret string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Links.Secret = secret
	}
}

// WithRetryLimit overrides the automatic retry budget.
func WithRetryLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.RetryLimit = limit
	}
}

// WithLocationTolerance overrides the coordinate tolerance used for
// conflict detection.
func WithLocationTolerance(degrees float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.LocationToleranceDegrees = degrees
	}
}
