package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"watchdog/internal/checker"
	"watchdog/internal/logging"
	"watchdog/internal/schedule"
	"watchdog/internal/watchfile"
)

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Daemon.TickIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First tick runs immediately so a freshly started daemon does not sit
	// idle for a full interval.
	d.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		case <-d.wake:
			d.tick(ctx)
		}
	}
}

// tick loads the topics file, applies the power gate, and fans out checks
// for due and forced topics. It blocks until the batch completes; forced
// requests arriving meanwhile wake the loop again afterwards.
func (d *Daemon) tick(ctx context.Context) {
	now := d.now()
	d.mu.Lock()
	tickAt := now
	d.lastTick = &tickAt
	forced := d.forced
	d.forced = make(map[string]struct{})
	d.mu.Unlock()

	doc, err := d.topics.Load()
	if err != nil {
		// Keep queued force requests for the next loadable tick.
		d.mu.Lock()
		for name := range forced {
			d.forced[name] = struct{}{}
		}
		d.mu.Unlock()

		switch {
		case errors.Is(err, watchfile.ErrMissing):
			d.logger.Debug("topics file absent, nothing to do")
		default:
			d.logger.Warn("failed to load topics file, skipping tick",
				logging.Error(err),
				logging.String(logging.FieldEventType, logging.EventError),
				logging.String(logging.FieldErrorHint, "Fix or remove the topics file; the daemon keeps retrying every tick"))
			// Alert the user once per failure streak, not every tick.
			if !d.loadFailAlerted {
				d.loadFailAlerted = true
				if notifyErr := d.notifier.NotifyError(ctx, err, "loading topics file"); notifyErr != nil {
					d.logger.Debug("error notification failed", logging.Error(notifyErr))
				}
			}
		}
		return
	}
	d.loadFailAlerted = false

	idleThreshold := time.Duration(doc.IdleThresholdMinutes) * time.Minute
	eligibility := d.gate.Evaluate(ctx, doc.RequireACPower, idleThreshold)
	d.mu.Lock()
	d.lastGate = eligibility
	d.mu.Unlock()

	// Forced topics skip both the gate and the schedule.
	var batch []watchfile.Topic
	for _, topic := range doc.Topics {
		if _, ok := forced[topic.Name]; ok {
			batch = append(batch, topic)
			continue
		}
		if eligibility.Eligible && schedule.IsDue(topic, now) {
			batch = append(batch, topic)
		}
	}

	if !eligibility.Eligible {
		d.logger.Debug("machine not eligible for scheduled checks",
			logging.String(logging.FieldEventType, logging.EventSkipped),
			logging.String("reason", eligibility.Reason),
			logging.Bool("on_ac", eligibility.OnAC),
			logging.Duration("idle", eligibility.Idle))
	}
	if len(batch) == 0 {
		return
	}

	d.logger.Info("tick",
		logging.String(logging.FieldEventType, logging.EventTick),
		logging.Int("due_count", len(batch)),
		logging.Int("topic_count", len(doc.Topics)))

	var group errgroup.Group
	group.SetLimit(d.cfg.Daemon.MaxConcurrentChecks)
	for _, topic := range batch {
		topic := topic
		group.Go(func() error {
			d.checkTopic(d.workCtx, topic)
			return nil
		})
	}
	_ = group.Wait()
}

// checkTopic runs one check end to end: execute, decide on notification,
// persist outcome, notify, record history. A failure in any step is isolated
// to this topic.
func (d *Daemon) checkTopic(ctx context.Context, topic watchfile.Topic) {
	logger := d.logger.With(
		logging.String(logging.FieldTopic, topic.Name),
		logging.String(logging.FieldCheckID, uuid.NewString()))

	d.mu.Lock()
	d.activeChecks++
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.activeChecks--
		d.mu.Unlock()
	}()

	logger.Info("check started",
		logging.String(logging.FieldEventType, logging.EventCheckStart))

	result, err := d.checker.Check(ctx, topic)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Shutdown mid-check: leave last_checked_at untouched so the
			// topic is retried on the next run.
			logger.Debug("check canceled, outcome discarded")
			return
		}
		// A failed attempt is still a completed attempt: record it as
		// inconclusive so the topic waits for its next due tick instead of
		// retrying every tick.
		logger.Error("check failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, logging.EventError),
			logging.String(logging.FieldErrorHint, "Verify API key and network access; the topic retries on its next due tick"))
		result = checker.Result{
			Topic:     topic.Name,
			Verdict:   checker.VerdictInconclusive,
			Summary:   "check failed before reaching a verdict",
			Err:       err.Error(),
			CheckedAt: d.now(),
		}
	}

	now := d.now()
	decision := d.filter.Evaluate(topic, result, now)

	// Persist before notifying: a crash after the write dedups the update
	// instead of announcing it twice.
	persistErr := d.topics.Mutate(ctx, func(cfg *watchfile.Config) (bool, error) {
		stored := cfg.FindTopic(topic.Name)
		if stored == nil {
			// Removed while the check ran.
			return false, nil
		}
		checkedAt := result.CheckedAt
		stored.LastCheckedAt = &checkedAt
		if decision.Notify {
			stored.LastSignal = result.Fingerprint
			notifiedAt := now
			stored.LastNotifiedAt = &notifiedAt
		}
		return true, nil
	})
	if persistErr != nil {
		logger.Warn("failed to persist check outcome",
			logging.Error(persistErr),
			logging.String(logging.FieldErrorHint, "Check topics file permissions and competing lock holders"))
	}

	notified := false
	if decision.Notify && persistErr == nil {
		if err := d.notifier.NotifyUpdate(ctx, topic.Name, result.Summary, result.SourceURL); err != nil {
			logger.Warn("notification delivery failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, logging.EventNotification))
		} else {
			notified = true
			logger.Info("update announced",
				logging.String(logging.FieldEventType, logging.EventNotification),
				logging.String("source_url", result.SourceURL))
		}
	}

	if d.history != nil {
		if _, err := d.history.Record(ctx, result, notified); err != nil {
			logger.Warn("failed to record check history", logging.Error(err))
		}
	}

	logger.Info("check finished",
		logging.String(logging.FieldEventType, logging.EventCheckDone),
		logging.String(logging.FieldVerdict, string(result.Verdict)),
		logging.Int("rounds", result.Rounds),
		logging.Duration(logging.FieldDuration, result.Duration),
		logging.Bool("notified", notified),
		logging.String("decision", decision.Reason))
}
