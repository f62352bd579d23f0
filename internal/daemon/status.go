package daemon

import (
	"context"
	"errors"
	"os"

	"watchdog/internal/ipc"
	"watchdog/internal/logging"
	"watchdog/internal/schedule"
	"watchdog/internal/watchfile"
)

// Status returns the current daemon status for IPC clients.
func (d *Daemon) Status(_ context.Context) ipc.StatusResponse {
	d.mu.Lock()
	lastTick := d.lastTick
	gate := d.lastGate
	active := d.activeChecks
	d.mu.Unlock()

	resp := ipc.StatusResponse{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		TopicsFile:   d.topics.Path(),
		LockPath:     d.lockPath,
		LastTickAt:   lastTick,
		GateEligible: gate.Eligible,
		GateReason:   gate.Reason,
		ActiveChecks: active,
	}
	if d.history != nil {
		resp.HistoryDBPath = d.history.Path()
	}

	doc, err := d.topics.Load()
	if err != nil {
		return resp
	}
	now := d.now()
	resp.Topics = make([]ipc.TopicStatus, 0, len(doc.Topics))
	for _, topic := range doc.Topics {
		status := ipc.TopicStatus{
			Name:           topic.Name,
			IntervalHours:  topic.CheckIntervalHours,
			LastCheckedAt:  topic.LastCheckedAt,
			LastNotifiedAt: topic.LastNotifiedAt,
			Due:            schedule.IsDue(topic, now),
		}
		if topic.LastCheckedAt != nil {
			next := schedule.NextDue(topic, now)
			status.NextDueAt = &next
		}
		resp.Topics = append(resp.Topics, status)
	}
	return resp
}

// CheckNow queues an immediate check of one topic, or of every topic,
// bypassing the schedule and the power gate.
func (d *Daemon) CheckNow(_ context.Context, name string, all bool) ([]string, error) {
	doc, err := d.topics.Load()
	if err != nil {
		if errors.Is(err, watchfile.ErrMissing) {
			return nil, errors.New("no topics file; run 'watchdog init' first")
		}
		return nil, err
	}

	var queued []string
	if all {
		for _, topic := range doc.Topics {
			queued = append(queued, topic.Name)
		}
	} else {
		resolved, err := watchfile.ResolveTopicName(doc, name)
		if err != nil {
			return nil, err
		}
		queued = []string{resolved}
	}
	if len(queued) == 0 {
		return nil, errors.New("no topics configured")
	}

	d.mu.Lock()
	for _, topic := range queued {
		d.forced[topic] = struct{}{}
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}

	d.logger.Debug("forced check queued", logging.Int("topic_count", len(queued)))
	return queued, nil
}

// TestNotification delivers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
