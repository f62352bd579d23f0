package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"watchdog/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantTopics := filepath.Join(tempHome, ".config", "watchdog", "topics.toml")
	if cfg.Paths.TopicsFile != wantTopics {
		t.Fatalf("unexpected topics file: got %q want %q", cfg.Paths.TopicsFile, wantTopics)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "watchdog") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected LLM base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.Search.MaxResults != 5 {
		t.Fatalf("unexpected default max results: %d", cfg.Search.MaxResults)
	}
	if cfg.Notifications.Command != "notify-send" {
		t.Fatalf("unexpected notification command: %q", cfg.Notifications.Command)
	}
	if cfg.Daemon.TickIntervalSeconds != 60 {
		t.Fatalf("unexpected tick interval: %d", cfg.Daemon.TickIntervalSeconds)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.TopicsFile)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "watchdog.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"llm"`
		Daemon struct {
			TickIntervalSeconds int `toml:"tick_interval_seconds"`
			MaxToolRounds       int `toml:"max_tool_rounds"`
		} `toml:"daemon"`
		Notifications struct {
			NtfyTopic               string `toml:"ntfy_topic"`
			RenotifyCooldownMinutes int    `toml:"renotify_cooldown_minutes"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.LLM.APIKey = "abc123"
	custom.LLM.Model = "openai/gpt-4o-mini"
	custom.Daemon.TickIntervalSeconds = 30
	custom.Daemon.MaxToolRounds = 4
	custom.Notifications.NtfyTopic = "watchdog-alerts"
	custom.Notifications.RenotifyCooldownMinutes = 90
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.LLM.APIKey != "abc123" {
		t.Fatalf("expected API key from file, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "openai/gpt-4o-mini" {
		t.Fatalf("expected model override, got %q", cfg.LLM.Model)
	}
	if cfg.Daemon.TickIntervalSeconds != 30 {
		t.Fatalf("expected tick interval 30, got %d", cfg.Daemon.TickIntervalSeconds)
	}
	if cfg.Daemon.MaxToolRounds != 4 {
		t.Fatalf("expected max tool rounds 4, got %d", cfg.Daemon.MaxToolRounds)
	}
	if cfg.Notifications.NtfyTopic != "watchdog-alerts" {
		t.Fatalf("expected ntfy topic override, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.RenotifyCooldownMinutes != 90 {
		t.Fatalf("expected renotify cooldown 90, got %d", cfg.Notifications.RenotifyCooldownMinutes)
	}
}

func TestEnvKeyFallbackWhenFileOmitsKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "watchdog.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\nmodel = \"test/model\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected API key from env fallback, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "api_key") {
		t.Fatalf("sample config missing api_key placeholder: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.LLM.APIKey = "key"
		return cfg
	}

	cfg := base()
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing API key")
	}

	cfg = base()
	cfg.Daemon.TickIntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive tick interval")
	}

	cfg = base()
	cfg.Notifications.Urgency = "shouty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid urgency")
	}

	cfg = base()
	cfg.Notifications.NtfyTopic = "has space"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed ntfy topic")
	}

	cfg = base()
	cfg.Search.MaxResults = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive max results")
	}
}
