package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"watchdog/internal/checker"
	"watchdog/internal/config"
	"watchdog/internal/daemon"
	"watchdog/internal/history"
	"watchdog/internal/ipc"
	"watchdog/internal/logging"
	"watchdog/internal/power"
	"watchdog/internal/testsupport"
	"watchdog/internal/watchfile"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

type quietChecker struct{}

func (quietChecker) Check(_ context.Context, topic watchfile.Topic) (checker.Result, error) {
	return checker.Result{
		Topic:     topic.Name,
		Verdict:   checker.VerdictUnchanged,
		Summary:   "nothing new",
		CheckedAt: time.Now().UTC(),
	}, nil
}

type eligibleGate struct{}

func (eligibleGate) Evaluate(context.Context, bool, time.Duration) power.Eligibility {
	return power.Eligibility{Eligible: true, Reason: "on AC power", OnAC: true}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(filepath.Dir(cfg.Paths.TopicsFile), "config.toml")
	writeTestConfig(t, configPath, cfg)

	doc := watchfile.Config{
		Topics: []watchfile.Topic{{
			Name:               "Go Releases",
			SearchQueries:      []string{"golang release"},
			CheckIntervalHours: 24,
		}},
	}
	topics := testsupport.MustSaveTopics(t, cfg, doc)

	logger := logging.NewNop()
	d, err := daemon.New(daemon.Options{
		Config:  cfg,
		Topics:  topics,
		Checker: quietChecker{},
		Gate:    eligibleGate{},
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		cancel()
		t.Skipf("unix sockets unavailable: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		cancel:     cancel,
	}
	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIAddListRemoveCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"add", "Rust Releases",
		"--query", "rust release",
		"--interval", "12",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Rust Releases") {
		t.Fatalf("add output missing topic name: %q", out)
	}

	out, _, err = runCLI(t, []string{"list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Go Releases") || !strings.Contains(out, "Rust Releases") {
		t.Fatalf("list missing topics: %q", out)
	}
	if !strings.Contains(out, "12h") {
		t.Fatalf("list missing interval column: %q", out)
	}

	out, _, err = runCLI(t, []string{"remove", "rust releases"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, `Removed topic "Rust Releases"`) {
		t.Fatalf("remove output unexpected: %q", out)
	}

	out, _, err = runCLI(t, []string{"list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if strings.Contains(out, "Rust Releases") {
		t.Fatalf("removed topic still listed: %q", out)
	}
}

func TestCLIAddRejectsDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"add", "go releases",
		"--query", "golang",
	}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected duplicate topic error")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIRemoveUnknownTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"remove", "No Such Topic"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown topic")
	}
}

func TestCLICheckQueuesThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", "go releases"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "Queued check") || !strings.Contains(out, "Go Releases") {
		t.Fatalf("check output unexpected: %q", out)
	}
}

func TestCLICheckRequiresTopicOrAll(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"check"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error when neither topic nor --all given")
	}
}

func TestCLIStatusShowsDaemonState(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Go Releases") {
		t.Fatalf("status missing topic: %q", out)
	}
}

func TestCLITestNotifyThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "test notification sent") {
		t.Fatalf("test-notify output unexpected: %q", out)
	}
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No checks recorded yet.") {
		t.Fatalf("history output unexpected: %q", out)
	}
}

func TestCLIHistoryPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	store, err := history.Open(env.cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	record := func(checkedAt time.Time) {
		t.Helper()
		result := checker.Result{
			Topic:     "Go Releases",
			Verdict:   checker.VerdictUnchanged,
			Summary:   "nothing new",
			CheckedAt: checkedAt,
		}
		if _, err := store.Record(context.Background(), result, false); err != nil {
			t.Fatalf("record history: %v", err)
		}
	}
	record(time.Now().AddDate(0, 0, -90))
	record(time.Now().Add(-time.Hour))
	if err := store.Close(); err != nil {
		t.Fatalf("close history: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--prune", "30"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history --prune: %v", err)
	}
	if !strings.Contains(out, "Pruned 1 entries older than 30 days.") {
		t.Fatalf("prune output unexpected: %q", out)
	}

	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history after prune: %v", err)
	}
	if strings.Count(out, "Go Releases") != 1 {
		t.Fatalf("expected one surviving entry, got: %q", out)
	}
}

func TestCLIStatusProbesAPIAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.LLM.BaseURL = srv.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	configPath := filepath.Join(filepath.Dir(cfg.Paths.TopicsFile), "config.toml")
	writeTestConfig(t, configPath, cfg)
	testsupport.MustSaveTopics(t, cfg, watchfile.Config{Topics: []watchfile.Topic{{
		Name:               "Go Releases",
		SearchQueries:      []string{"golang release"},
		CheckIntervalHours: 24,
	}}})

	// No daemon is listening, so status renders from the files and pings
	// the model endpoint directly.
	out, _, err := runCLI(t, []string{"status"}, cfg.Paths.SocketPath, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "not running") {
		t.Fatalf("expected offline daemon line: %q", out)
	}
	if !strings.Contains(out, "API access") || !strings.Contains(out, "ok") {
		t.Fatalf("expected API access probe result: %q", out)
	}
}
