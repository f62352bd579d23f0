package schedule_test

import (
	"testing"
	"time"

	"watchdog/internal/schedule"
	"watchdog/internal/watchfile"
)

func topicCheckedAt(name string, hours int, checked *time.Time) watchfile.Topic {
	return watchfile.Topic{
		Name:               name,
		SearchQueries:      []string{"q"},
		CheckIntervalHours: hours,
		LastCheckedAt:      checked,
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	dayAgo := now.Add(-24 * time.Hour)
	hourAgo := now.Add(-time.Hour)

	cases := []struct {
		name  string
		topic watchfile.Topic
		want  bool
	}{
		{"never checked", topicCheckedAt("a", 24, nil), true},
		{"interval elapsed exactly", topicCheckedAt("b", 24, &dayAgo), true},
		{"interval not elapsed", topicCheckedAt("c", 24, &hourAgo), false},
		{"short interval elapsed", topicCheckedAt("d", 1, &hourAgo), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := schedule.IsDue(tc.topic, now); got != tc.want {
				t.Fatalf("IsDue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDueFilters(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Minute)
	stale := now.Add(-48 * time.Hour)

	topics := []watchfile.Topic{
		topicCheckedAt("fresh", 24, &recent),
		topicCheckedAt("stale", 24, &stale),
		topicCheckedAt("new", 24, nil),
	}

	due := schedule.Due(topics, now)
	if len(due) != 2 {
		t.Fatalf("got %d due topics, want 2: %+v", len(due), due)
	}
	if due[0].Name != "stale" || due[1].Name != "new" {
		t.Fatalf("unexpected due order: %q, %q", due[0].Name, due[1].Name)
	}
}

func TestNextDue(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	checked := now.Add(-6 * time.Hour)

	topic := topicCheckedAt("t", 24, &checked)
	want := checked.Add(24 * time.Hour)
	if got := schedule.NextDue(topic, now); !got.Equal(want) {
		t.Fatalf("NextDue = %v, want %v", got, want)
	}

	topic = topicCheckedAt("n", 24, nil)
	if got := schedule.NextDue(topic, now); !got.Equal(now) {
		t.Fatalf("NextDue never-checked = %v, want %v", got, now)
	}
}
