package testsupport

import (
	"path/filepath"
	"testing"

	"slate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ThumbDir = filepath.Join(base, "thumbs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	// No panel listens during tests; the connect loop just retries.
	cfgVal.Bridge.Port = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithPlatform points the config at a platform endpoint, typically an
// httptest server.
func WithPlatform(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Platform.BaseURL = baseURL
		b.cfg.Platform.ScriptName = "slate-test"
		b.cfg.Platform.APIKey = "test-key"
	}
}

// WithPublishTemplates sets the work and publish templates on the test
// config.
func WithPublishTemplates(work, sequence, movie string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.WorkTemplate = work
		b.cfg.Publish.SequenceTemplate = sequence
		b.cfg.Publish.MovieTemplate = movie
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
