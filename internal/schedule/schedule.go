// Package schedule decides which topics are due for a check.
package schedule

import (
	"time"

	"watchdog/internal/watchfile"
)

// Due returns the topics whose check interval has elapsed at now. A topic
// that has never been checked is always due. A topic whose interval has
// elapsed exactly is due.
func Due(topics []watchfile.Topic, now time.Time) []watchfile.Topic {
	var due []watchfile.Topic
	for _, topic := range topics {
		if IsDue(topic, now) {
			due = append(due, topic)
		}
	}
	return due
}

// IsDue reports whether a single topic should be checked at now.
func IsDue(topic watchfile.Topic, now time.Time) bool {
	if topic.LastCheckedAt == nil {
		return true
	}
	return now.Sub(*topic.LastCheckedAt) >= topic.Interval()
}

// NextDue returns when the topic next becomes due. Topics never checked are
// due immediately, reported as now.
func NextDue(topic watchfile.Topic, now time.Time) time.Time {
	if topic.LastCheckedAt == nil {
		return now
	}
	return topic.LastCheckedAt.Add(topic.Interval())
}
