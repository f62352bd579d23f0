package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"watchdog/internal/checker"
	"watchdog/internal/config"
	"watchdog/internal/dedup"
	"watchdog/internal/history"
	"watchdog/internal/logging"
	"watchdog/internal/notifications"
	"watchdog/internal/power"
	"watchdog/internal/watchfile"
)

// Checker runs one bounded AI check for a topic.
type Checker interface {
	Check(ctx context.Context, topic watchfile.Topic) (checker.Result, error)
}

// Gate decides whether the machine is eligible for checks right now.
type Gate interface {
	Evaluate(ctx context.Context, requireAC bool, idleThreshold time.Duration) power.Eligibility
}

// Options collects the daemon's dependencies.
type Options struct {
	Config   *config.Config
	Topics   *watchfile.Store
	Checker  Checker
	Notifier notifications.Service
	Gate     Gate
	History  *history.Store
	Logger   *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Daemon schedules topic checks and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	topics   *watchfile.Store
	checker  Checker
	notifier notifications.Service
	gate     Gate
	history  *history.Store
	filter   *dedup.Filter
	logger   *slog.Logger
	now      func() time.Time

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	// workCtx outlives the scheduling context so in-flight checks can finish
	// and persist during the shutdown grace period.
	workCtx    context.Context
	workCancel context.CancelFunc
	wg         sync.WaitGroup
	wake       chan struct{}
	// loadFailAlerted marks that the current topics-file failure streak has
	// already been announced. Touched only by the loop goroutine.
	loadFailAlerted bool

	mu           sync.Mutex
	forced       map[string]struct{}
	lastTick     *time.Time
	lastGate     power.Eligibility
	activeChecks int
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Topics == nil || opts.Checker == nil {
		return nil, errors.New("daemon requires config, topics store, and checker")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	gate := opts.Gate
	if gate == nil {
		gate = power.NewGate(power.NewPlatformProbe(opts.Config.Power.ACSupplyGlob), opts.Logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cooldown := time.Duration(opts.Config.Notifications.RenotifyCooldownMinutes) * time.Minute
	lockPath := opts.Config.DaemonLockPath()
	workCtx, workCancel := context.WithCancel(context.Background())
	return &Daemon{
		cfg:        opts.Config,
		topics:     opts.Topics,
		checker:    opts.Checker,
		notifier:   notifier,
		gate:       gate,
		history:    opts.History,
		filter:     dedup.NewFilter(cooldown, opts.Config.Notifications.MinConfidence),
		logger:     logging.WithComponent(opts.Logger, "daemon"),
		now:        now,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		workCtx:    workCtx,
		workCancel: workCancel,
		wake:       make(chan struct{}, 1),
		forced:     make(map[string]struct{}),
	}, nil
}

// Start acquires the instance lock and launches the scheduling loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another watchdog daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.workCancel != nil {
		d.workCancel()
	}
	d.workCtx, d.workCancel = context.WithCancel(context.Background())

	d.running.Store(true)
	d.wg.Add(1)
	go d.run(runCtx)

	d.logger.Info("watchdog daemon started",
		logging.String("lock", d.lockPath),
		logging.String("topics_file", d.topics.Path()))
	return nil
}

// Stop halts scheduling, waits out the shutdown grace period for in-flight
// checks, and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	grace := time.Duration(d.cfg.Daemon.ShutdownGraceSeconds) * time.Second
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		d.logger.Warn("shutdown grace period elapsed, aborting in-flight checks",
			logging.Duration("grace", grace))
		d.workCancel()
		<-done
	}
	d.workCancel()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("watchdog daemon stopped")
}

// Close stops the daemon and its history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Running reports whether the scheduling loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
