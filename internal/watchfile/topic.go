package watchfile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MinCheckIntervalHours and MaxCheckIntervalHours bound how often a
	// topic may be checked.
	MinCheckIntervalHours = 1
	MaxCheckIntervalHours = 168
)

// Topic describes one monitored subject.
type Topic struct {
	Name               string     `toml:"name"`
	Description        string     `toml:"description"`
	SearchQueries      []string   `toml:"search_queries"`
	URLsToCheck        []string   `toml:"urls_to_check,omitempty"`
	CheckIntervalHours int        `toml:"check_interval_hours"`
	LastCheckedAt      *time.Time `toml:"last_checked_at,omitempty"`
	LastSignal         string     `toml:"last_signal,omitempty"`
	LastNotifiedAt     *time.Time `toml:"last_notified_at,omitempty"`
}

// Interval returns the topic's check interval as a duration.
func (t Topic) Interval() time.Duration {
	return time.Duration(t.CheckIntervalHours) * time.Hour
}

// Validate checks a single topic's fields.
func (t Topic) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("topic name must not be empty")
	}
	if t.CheckIntervalHours < MinCheckIntervalHours || t.CheckIntervalHours > MaxCheckIntervalHours {
		return fmt.Errorf("topic %q: check_interval_hours must be between %d and %d",
			t.Name, MinCheckIntervalHours, MaxCheckIntervalHours)
	}
	if len(t.SearchQueries) == 0 && len(t.URLsToCheck) == 0 {
		return fmt.Errorf("topic %q: needs at least one search query or URL", t.Name)
	}
	for _, q := range t.SearchQueries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("topic %q: search queries must not be empty", t.Name)
		}
	}
	for _, u := range t.URLsToCheck {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("topic %q: urls_to_check entries must not be empty", t.Name)
		}
	}
	return nil
}

// Config is the root document of the topics file.
type Config struct {
	RequireACPower       bool    `toml:"require_ac_power"`
	IdleThresholdMinutes int     `toml:"idle_threshold_minutes"`
	Topics               []Topic `toml:"topics"`
}

// DefaultConfig returns the document written by 'watchdog init'.
func DefaultConfig() Config {
	return Config{
		RequireACPower:       true,
		IdleThresholdMinutes: 10,
		Topics:               nil,
	}
}

// Validate checks the whole document, including topic name uniqueness.
func (c Config) Validate() error {
	if c.IdleThresholdMinutes < 0 {
		return errors.New("idle_threshold_minutes must be >= 0")
	}
	seen := make(map[string]struct{}, len(c.Topics))
	for _, topic := range c.Topics {
		if err := topic.Validate(); err != nil {
			return err
		}
		if _, dup := seen[topic.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, topic.Name)
		}
		seen[topic.Name] = struct{}{}
	}
	return nil
}

// FindTopic returns a pointer into c.Topics for the named topic, or nil.
// The match is exact; callers wanting user-friendly lookup should resolve
// the name first (see ResolveTopicName).
func (c *Config) FindTopic(name string) *Topic {
	for i := range c.Topics {
		if c.Topics[i].Name == name {
			return &c.Topics[i]
		}
	}
	return nil
}

// UpsertTopic inserts the topic or replaces the existing topic of the same
// name, preserving check timestamps when replacing.
func (c *Config) UpsertTopic(topic Topic) {
	for i := range c.Topics {
		if c.Topics[i].Name == topic.Name {
			if topic.LastCheckedAt == nil {
				topic.LastCheckedAt = c.Topics[i].LastCheckedAt
			}
			if topic.LastSignal == "" {
				topic.LastSignal = c.Topics[i].LastSignal
			}
			if topic.LastNotifiedAt == nil {
				topic.LastNotifiedAt = c.Topics[i].LastNotifiedAt
			}
			c.Topics[i] = topic
			return
		}
	}
	c.Topics = append(c.Topics, topic)
}

// RemoveTopic deletes the named topic. It reports whether a topic was removed.
func (c *Config) RemoveTopic(name string) bool {
	for i := range c.Topics {
		if c.Topics[i].Name == name {
			c.Topics = append(c.Topics[:i], c.Topics[i+1:]...)
			return true
		}
	}
	return false
}
