package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLinks(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.QueueDir) == "" {
		return errors.New("paths.queue_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.QueueDir == c.Paths.DataDir {
		return errors.New("paths.queue_dir and paths.data_dir must differ")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.ProviderTimeout <= 0 {
		return errors.New("pipeline.provider_timeout must be positive")
	}
	if c.Pipeline.LocationToleranceDegrees <= 0 {
		return errors.New("pipeline.location_tolerance_degrees must be positive")
	}
	return nil
}

func (c *Config) validateLinks() error {
	// Secret is optional at load time; the link commands and the deep-link
	// resolver require it and fail with a pointed message when missing.
	if c.Links.Secret != "" && len(c.Links.Secret) < 16 {
		return errors.New("links.secret must be at least 16 bytes")
	}
	if strings.ContainsAny(c.Links.Host, "/?#") {
		return fmt.Errorf("links.host %q must be a bare host name", c.Links.Host)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
