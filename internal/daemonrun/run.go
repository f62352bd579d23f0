// Package daemonrun wires the daemon process together: logger, history
// store, check executor, notifications, IPC server, and the scheduling loop
// itself, then blocks until a shutdown signal arrives.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"golang.org/x/sys/unix"

	"watchdog/internal/checker"
	"watchdog/internal/config"
	"watchdog/internal/daemon"
	"watchdog/internal/history"
	"watchdog/internal/ipc"
	"watchdog/internal/llm"
	"watchdog/internal/logging"
	"watchdog/internal/notifications"
	"watchdog/internal/watchfile"
	"watchdog/internal/websearch"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the watchdog daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	if err := checkDirAccess(cfg.Paths.DataDir); err != nil {
		return err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "watchdog.log")
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := cfg.PidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	hist, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer hist.Close()

	notifier := notifications.NewService(cfg)
	executor, err := BuildExecutor(cfg, logger)
	if err != nil {
		return fmt.Errorf("build check executor: %w", err)
	}

	topics := watchfile.NewStore(cfg.Paths.TopicsFile)
	d, err := daemon.New(daemon.Options{
		Config:   cfg,
		Topics:   topics,
		Checker:  executor,
		Notifier: notifier,
		History:  hist,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ctrl := &stopNotifier{Daemon: d, stopped: make(chan struct{})}
	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, ctrl, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	announceStart(signalCtx, topics, notifier, logger)

	select {
	case <-signalCtx.Done():
	case <-ctrl.stopped:
	}
	logger.Info("watchdog daemon shutting down")
	return nil
}

// stopNotifier lets an IPC stop request end the daemon process, not just the
// scheduling loop.
type stopNotifier struct {
	*daemon.Daemon
	once    sync.Once
	stopped chan struct{}
}

func (s *stopNotifier) Stop() {
	s.Daemon.Stop()
	s.once.Do(func() { close(s.stopped) })
}

// BuildExecutor assembles the check executor from configuration. The CLI
// reuses it for in-process checks when the daemon is unreachable.
func BuildExecutor(cfg *config.Config, logger *slog.Logger) (*checker.Executor, error) {
	llmCfg := cfg.GetLLM()
	model := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	tools := websearch.NewClient(websearch.Options{
		BaseURL:        cfg.Search.BaseURL,
		MaxResults:     cfg.Search.MaxResults,
		PageByteLimit:  cfg.Search.PageByteLimit,
		SnippetRunes:   cfg.Search.SnippetRunes,
		RequestTimeout: time.Duration(cfg.Search.RequestTimeout) * time.Second,
		UserAgent:      cfg.Search.UserAgent,
	})
	return checker.NewExecutor(checker.Options{
		Model:     model,
		Tools:     tools,
		MaxRounds: cfg.Daemon.MaxToolRounds,
		Timeout:   time.Duration(cfg.Daemon.CheckTimeoutSeconds) * time.Second,
		Logger:    logger,
	})
}

func announceStart(ctx context.Context, topics *watchfile.Store, notifier notifications.Service, logger *slog.Logger) {
	doc, err := topics.Load()
	if err != nil {
		return
	}
	if err := notifier.NotifyStarted(ctx, len(doc.Topics)); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}
}

// checkDirAccess rejects a data directory the daemon cannot fully use, which
// surfaces permission problems at startup instead of on the first check.
func checkDirAccess(path string) error {
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("data directory %s is not read/write accessible: %w", path, err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
