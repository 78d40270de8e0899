package config

const (
	defaultQueueDir              = "~/.local/share/satchel/queue"
	defaultDataDir               = "~/.local/share/satchel/data"
	defaultLogDir                = "~/.local/share/satchel/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultProviderTimeout       = 20
	defaultLocationTolerance     = 0.0001
	defaultRetryLimit            = 3
	defaultPollInterval          = 5
	defaultLinkHost              = "links.satchel.app"
	defaultLinkScheme            = "satchel"
	defaultPreviewRequestTimeout = 15
	defaultPreviewCacheTTLHours  = 168
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			QueueDir: defaultQueueDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
		},
		Pipeline: Pipeline{
			ProviderTimeout:          defaultProviderTimeout,
			LocationToleranceDegrees: defaultLocationTolerance,
			RetryLimit:               defaultRetryLimit,
			PollInterval:             defaultPollInterval,
		},
		Links: Links{
			Host:   defaultLinkHost,
			Scheme: defaultLinkScheme,
		},
		WebPreview: WebPreview{
			Enabled:        true,
			RequestTimeout: defaultPreviewRequestTimeout,
			CacheEnabled:   true,
			CacheTTLHours:  defaultPreviewCacheTTLHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			CaptureQueued:  false,
			RecordReady:    true,
			ReviewRequired: true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
