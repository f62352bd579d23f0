package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/watchdog/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'watchdog init')", defaultPath)
	}
	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("llm.base_url is not a valid URL: %w", err)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSearch() error {
	parsed, err := url.Parse(c.Search.BaseURL)
	if err != nil || parsed.Scheme == "" {
		return fmt.Errorf("search.base_url is not a valid URL: %q", c.Search.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"search.max_results":     c.Search.MaxResults,
		"search.page_byte_limit": c.Search.PageByteLimit,
		"search.snippet_runes":   c.Search.SnippetRunes,
		"search.request_timeout": c.Search.RequestTimeout,
	})
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Urgency {
	case "low", "normal", "critical":
	default:
		return fmt.Errorf("notifications.urgency must be low, normal, or critical (got %q)", c.Notifications.Urgency)
	}
	if strings.ContainsAny(c.Notifications.NtfyTopic, " /") {
		return errors.New("notifications.ntfy_topic must be a bare topic name")
	}
	if c.Notifications.MinConfidence < 0 || c.Notifications.MinConfidence > 1 {
		return fmt.Errorf("notifications.min_confidence must be between 0 and 1 (got %g)", c.Notifications.MinConfidence)
	}
	return ensurePositiveMap(map[string]int{
		"notifications.expire_millis":   c.Notifications.ExpireMillis,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateDaemon() error {
	if err := ensurePositiveMap(map[string]int{
		"daemon.tick_interval_seconds":  c.Daemon.TickIntervalSeconds,
		"daemon.max_concurrent_checks":  c.Daemon.MaxConcurrentChecks,
		"daemon.check_timeout_seconds":  c.Daemon.CheckTimeoutSeconds,
		"daemon.max_tool_rounds":        c.Daemon.MaxToolRounds,
		"daemon.shutdown_grace_seconds": c.Daemon.ShutdownGraceSeconds,
	}); err != nil {
		return err
	}
	if c.Daemon.CheckTimeoutSeconds <= c.Daemon.TickIntervalSeconds && c.Daemon.CheckTimeoutSeconds < 30 {
		return errors.New("daemon.check_timeout_seconds must allow at least 30 seconds per check")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
