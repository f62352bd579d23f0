package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// TopicStatus summarizes scheduling state for a single watched topic.
type TopicStatus struct {
	Name           string     `json:"name"`
	IntervalHours  int        `json:"interval_hours"`
	LastCheckedAt  *time.Time `json:"last_checked_at"`
	NextDueAt      *time.Time `json:"next_due_at"`
	Due            bool       `json:"due"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid"`
	TopicsFile    string        `json:"topics_file"`
	HistoryDBPath string        `json:"history_db_path"`
	LockPath      string        `json:"lock_path"`
	LastTickAt    *time.Time    `json:"last_tick_at"`
	GateEligible  bool          `json:"gate_eligible"`
	GateReason    string        `json:"gate_reason"`
	ActiveChecks  int           `json:"active_checks"`
	Topics        []TopicStatus `json:"topics"`
}

// CheckNowRequest forces a check of one topic, or all topics.
type CheckNowRequest struct {
	Topic string `json:"topic"`
	All   bool   `json:"all"`
}

// CheckNowResponse lists the topics queued for an immediate check.
type CheckNowResponse struct {
	Queued []string `json:"queued"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
