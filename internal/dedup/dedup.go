// Package dedup decides whether a changed verdict is worth a notification,
// suppressing repeats of already-announced updates and rapid re-alerts.
package dedup

import (
	"time"

	"watchdog/internal/checker"
	"watchdog/internal/watchfile"
)

// Filter applies the notification policy.
type Filter struct {
	// cooldown suppresses a second notification for the same topic within
	// this window even when the update itself is new. Zero derives the
	// window from the topic's check interval.
	cooldown time.Duration

	// minConfidence suppresses changed verdicts the model itself is not
	// sure about. Zero disables the threshold.
	minConfidence float64
}

// NewFilter builds a filter with the given re-notify cooldown and minimum
// confidence. Pass a zero cooldown to use half the topic's check interval.
func NewFilter(cooldown time.Duration, minConfidence float64) *Filter {
	return &Filter{cooldown: cooldown, minConfidence: minConfidence}
}

// Decision explains the filter's outcome for logging.
type Decision struct {
	Notify bool
	Reason string
}

// Evaluate decides whether to notify for the result. Only changed verdicts
// meeting the confidence threshold, with a fingerprint differing from the
// topic's last announced signal, pass. At most one notification per cooldown
// window per topic.
func (f *Filter) Evaluate(topic watchfile.Topic, result checker.Result, now time.Time) Decision {
	if result.Verdict != checker.VerdictChanged {
		return Decision{Reason: "verdict " + string(result.Verdict)}
	}
	if result.Fingerprint == "" {
		return Decision{Reason: "missing fingerprint"}
	}
	if f.minConfidence > 0 && result.Confidence < f.minConfidence {
		return Decision{Reason: "low confidence"}
	}
	if result.Fingerprint == topic.LastSignal {
		return Decision{Reason: "already announced"}
	}
	if topic.LastNotifiedAt != nil {
		cooldown := f.cooldownFor(topic)
		if elapsed := now.Sub(*topic.LastNotifiedAt); elapsed < cooldown {
			return Decision{Reason: "cooldown active"}
		}
	}
	return Decision{Notify: true, Reason: "new update"}
}

func (f *Filter) cooldownFor(topic watchfile.Topic) time.Duration {
	if f.cooldown > 0 {
		return f.cooldown
	}
	return topic.Interval() / 2
}
