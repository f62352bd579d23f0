package config

const (
	defaultTopicsFile    = "~/.config/watchdog/topics.toml"
	defaultDataDir       = "~/.local/share/watchdog"
	defaultLogDir        = "~/.local/share/watchdog/logs"
	defaultSocketPath    = "~/.local/share/watchdog/watchdog.sock"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLLMBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel      = "anthropic/claude-sonnet-4"
	defaultLLMReferer    = "https://github.com/watchdog/watchdog"
	defaultLLMTitle      = "Watchdog Topic Monitor"
	defaultLLMTimeout    = 120
	defaultSearchBaseURL = "https://html.duckduckgo.com/html/"
	defaultSearchResults = 5
	defaultPageByteLimit = 262144
	defaultSnippetRunes  = 3000
	defaultSearchTimeout = 20
	defaultSearchAgent   = "Mozilla/5.0 (X11; Linux x86_64) watchdog/1.0"
	defaultNotifyCommand = "notify-send"
	defaultNotifyUrgency = "normal"
	defaultNotifyExpire  = 30000
	defaultNotifyTimeout = 10
	defaultMinConfidence = 0.3
	defaultTickInterval  = 60
	defaultMaxConcurrent = 2
	defaultCheckTimeout  = 300
	defaultMaxToolRounds = 8
	defaultShutdownGrace = 30
	defaultACSupplyGlob  = "/sys/class/power_supply/AC*/online"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TopicsFile: defaultTopicsFile,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Search: Search{
			BaseURL:        defaultSearchBaseURL,
			MaxResults:     defaultSearchResults,
			PageByteLimit:  defaultPageByteLimit,
			SnippetRunes:   defaultSnippetRunes,
			RequestTimeout: defaultSearchTimeout,
			UserAgent:      defaultSearchAgent,
		},
		Notifications: Notifications{
			Command:        defaultNotifyCommand,
			Urgency:        defaultNotifyUrgency,
			ExpireMillis:   defaultNotifyExpire,
			RequestTimeout: defaultNotifyTimeout,
			MinConfidence:  defaultMinConfidence,
		},
		Daemon: Daemon{
			TickIntervalSeconds:  defaultTickInterval,
			MaxConcurrentChecks:  defaultMaxConcurrent,
			CheckTimeoutSeconds:  defaultCheckTimeout,
			MaxToolRounds:        defaultMaxToolRounds,
			ShutdownGraceSeconds: defaultShutdownGrace,
		},
		Power: Power{
			ACSupplyGlob: defaultACSupplyGlob,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
