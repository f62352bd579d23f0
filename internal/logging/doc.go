// Package logging configures slog-based logging for the watchdog daemon
// and CLI. It provides a human-readable console handler for interactive
// use, a JSON handler for log files, and shared attribute helpers so all
// components emit consistent structured fields.
package logging
