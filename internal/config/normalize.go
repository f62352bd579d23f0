package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeSearch()
	c.normalizeNotifications()
	c.normalizeDaemon()
	c.normalizePower()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TopicsFile) == "" {
		c.Paths.TopicsFile = defaultTopicsFile
	}
	if c.Paths.TopicsFile, err = expandPath(c.Paths.TopicsFile); err != nil {
		return fmt.Errorf("paths.topics_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("WATCHDOG_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeSearch() {
	c.Search.BaseURL = strings.TrimSpace(c.Search.BaseURL)
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = defaultSearchBaseURL
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = defaultSearchResults
	}
	if c.Search.PageByteLimit <= 0 {
		c.Search.PageByteLimit = defaultPageByteLimit
	}
	if c.Search.SnippetRunes <= 0 {
		c.Search.SnippetRunes = defaultSnippetRunes
	}
	if c.Search.RequestTimeout <= 0 {
		c.Search.RequestTimeout = defaultSearchTimeout
	}
	c.Search.UserAgent = strings.TrimSpace(c.Search.UserAgent)
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = defaultSearchAgent
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Command = strings.TrimSpace(c.Notifications.Command)
	if c.Notifications.Command == "" {
		c.Notifications.Command = defaultNotifyCommand
	}
	c.Notifications.Urgency = strings.ToLower(strings.TrimSpace(c.Notifications.Urgency))
	if c.Notifications.Urgency == "" {
		c.Notifications.Urgency = defaultNotifyUrgency
	}
	if c.Notifications.ExpireMillis <= 0 {
		c.Notifications.ExpireMillis = defaultNotifyExpire
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Notifications.RenotifyCooldownMinutes < 0 {
		c.Notifications.RenotifyCooldownMinutes = 0
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.TickIntervalSeconds <= 0 {
		c.Daemon.TickIntervalSeconds = defaultTickInterval
	}
	if c.Daemon.MaxConcurrentChecks <= 0 {
		c.Daemon.MaxConcurrentChecks = defaultMaxConcurrent
	}
	if c.Daemon.CheckTimeoutSeconds <= 0 {
		c.Daemon.CheckTimeoutSeconds = defaultCheckTimeout
	}
	if c.Daemon.MaxToolRounds <= 0 {
		c.Daemon.MaxToolRounds = defaultMaxToolRounds
	}
	if c.Daemon.ShutdownGraceSeconds <= 0 {
		c.Daemon.ShutdownGraceSeconds = defaultShutdownGrace
	}
}

func (c *Config) normalizePower() {
	c.Power.ACSupplyGlob = strings.TrimSpace(c.Power.ACSupplyGlob)
	if c.Power.ACSupplyGlob == "" {
		c.Power.ACSupplyGlob = defaultACSupplyGlob
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
