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
	c.normalizePipeline()
	c.normalizeLinks()
	c.normalizeWebPreview()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.QueueDir) == "" {
		c.Paths.QueueDir = defaultQueueDir
	}
	if c.Paths.QueueDir, err = expandPath(c.Paths.QueueDir); err != nil {
		return fmt.Errorf("paths.queue_dir: %w", err)
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
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.ProviderTimeout <= 0 {
		c.Pipeline.ProviderTimeout = defaultProviderTimeout
	}
	if c.Pipeline.LocationToleranceDegrees <= 0 {
		c.Pipeline.LocationToleranceDegrees = defaultLocationTolerance
	}
	if c.Pipeline.RetryLimit < 0 {
		c.Pipeline.RetryLimit = defaultRetryLimit
	}
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeLinks() {
	if c.Links.Secret == "" {
		if value, ok := os.LookupEnv("SATCHEL_LINK_SECRET"); ok {
			c.Links.Secret = value
		}
	}
	c.Links.Host = strings.TrimSpace(strings.ToLower(c.Links.Host))
	if c.Links.Host == "" {
		c.Links.Host = defaultLinkHost
	}
	c.Links.Scheme = strings.TrimSpace(strings.ToLower(c.Links.Scheme))
	if c.Links.Scheme == "" {
		c.Links.Scheme = defaultLinkScheme
	}
}

func (c *Config) normalizeWebPreview() {
	if c.WebPreview.RequestTimeout <= 0 {
		c.WebPreview.RequestTimeout = defaultPreviewRequestTimeout
	}
	if c.WebPreview.CacheTTLHours <= 0 {
		c.WebPreview.CacheTTLHours = defaultPreviewCacheTTLHours
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
