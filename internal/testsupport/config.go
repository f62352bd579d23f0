// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"watchdog/internal/config"
	"watchdog/internal/watchfile"
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
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.Paths.TopicsFile = filepath.Join(base, "topics.toml")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "watchdog.sock")
	cfgVal.Daemon.TickIntervalSeconds = 1
	cfgVal.Daemon.ShutdownGraceSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIKey sets the AI provider API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithNtfyTopic enables the ntfy notification channel on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// MustSaveTopics writes a topics document to the config's topics file.
func MustSaveTopics(t testing.TB, cfg *config.Config, doc watchfile.Config) *watchfile.Store {
	t.Helper()
	store := watchfile.NewStore(cfg.Paths.TopicsFile)
	if err := store.Save(doc); err != nil {
		t.Fatalf("save topics file: %v", err)
	}
	return store
}
