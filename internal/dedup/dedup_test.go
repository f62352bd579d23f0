package dedup_test

import (
	"testing"
	"time"

	"watchdog/internal/checker"
	"watchdog/internal/dedup"
	"watchdog/internal/watchfile"
)

func changedResult(fingerprint string) checker.Result {
	return checker.Result{
		Topic:       "t",
		Verdict:     checker.VerdictChanged,
		Summary:     "something happened",
		Fingerprint: fingerprint,
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	anHourAgo := now.Add(-time.Hour)
	aDayAgo := now.Add(-24 * time.Hour)

	baseTopic := watchfile.Topic{
		Name:               "t",
		SearchQueries:      []string{"q"},
		CheckIntervalHours: 24,
	}

	cases := []struct {
		name          string
		topic         func() watchfile.Topic
		result        checker.Result
		cooldown      time.Duration
		minConfidence float64
		want          bool
	}{
		{
			name:   "new update notifies",
			topic:  func() watchfile.Topic { return baseTopic },
			result: changedResult("fp1"),
			want:   true,
		},
		{
			name:   "unchanged verdict suppressed",
			topic:  func() watchfile.Topic { return baseTopic },
			result: checker.Result{Verdict: checker.VerdictUnchanged},
			want:   false,
		},
		{
			name:   "inconclusive verdict suppressed",
			topic:  func() watchfile.Topic { return baseTopic },
			result: checker.Result{Verdict: checker.VerdictInconclusive},
			want:   false,
		},
		{
			name: "same fingerprint suppressed",
			topic: func() watchfile.Topic {
				topic := baseTopic
				topic.LastSignal = "fp1"
				return topic
			},
			result: changedResult("fp1"),
			want:   false,
		},
		{
			name: "new fingerprint inside cooldown suppressed",
			topic: func() watchfile.Topic {
				topic := baseTopic
				topic.LastSignal = "fp1"
				topic.LastNotifiedAt = &anHourAgo
				return topic
			},
			result: changedResult("fp2"),
			want:   false,
		},
		{
			name: "new fingerprint after cooldown notifies",
			topic: func() watchfile.Topic {
				topic := baseTopic
				topic.LastSignal = "fp1"
				topic.LastNotifiedAt = &aDayAgo
				return topic
			},
			result: changedResult("fp2"),
			want:   true,
		},
		{
			name: "explicit cooldown overrides interval default",
			topic: func() watchfile.Topic {
				topic := baseTopic
				topic.LastSignal = "fp1"
				topic.LastNotifiedAt = &anHourAgo
				return topic
			},
			result:   changedResult("fp2"),
			cooldown: 30 * time.Minute,
			want:     true,
		},
		{
			name: "changed without fingerprint suppressed",
			topic: func() watchfile.Topic {
				return baseTopic
			},
			result: checker.Result{Verdict: checker.VerdictChanged},
			want:   false,
		},
		{
			name:  "low confidence suppressed",
			topic: func() watchfile.Topic { return baseTopic },
			result: func() checker.Result {
				result := changedResult("fp1")
				result.Confidence = 0.2
				return result
			}(),
			minConfidence: 0.3,
			want:          false,
		},
		{
			name:  "confidence at threshold notifies",
			topic: func() watchfile.Topic { return baseTopic },
			result: func() checker.Result {
				result := changedResult("fp1")
				result.Confidence = 0.3
				return result
			}(),
			minConfidence: 0.3,
			want:          true,
		},
		{
			name:  "zero threshold accepts any confidence",
			topic: func() watchfile.Topic { return baseTopic },
			result: func() checker.Result {
				result := changedResult("fp1")
				result.Confidence = 0.05
				return result
			}(),
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter := dedup.NewFilter(tc.cooldown, tc.minConfidence)
			got := filter.Evaluate(tc.topic(), tc.result, now)
			if got.Notify != tc.want {
				t.Fatalf("Notify = %v (reason %q), want %v", got.Notify, got.Reason, tc.want)
			}
		})
	}
}
