package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// QueueDir is the shared capture queue directory. Producers (share
	// extensions, widgets, deep-link handlers) write item files here; the
	// pipeline consumes them.
	QueueDir string `toml:"queue_dir"`
	// DataDir holds the library database and the preview cache.
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Pipeline contains tuning for the enrichment pipeline.
type Pipeline struct {
	// ProviderTimeout bounds each enrichment provider call, in seconds.
	ProviderTimeout int `toml:"provider_timeout"`
	// LocationToleranceDegrees is the maximum coordinate disagreement
	// accepted before a location conflict routes an item to review.
	LocationToleranceDegrees float64 `toml:"location_tolerance_degrees"`
	// RetryLimit caps automatic reprocessing attempts for a failed record.
	RetryLimit int `toml:"retry_limit"`
	// PollInterval is the drain interval for watch mode, in seconds.
	PollInterval int `toml:"poll_interval"`
}

// Links contains configuration for the signed share-link codec.
type Links struct {
	// Secret signs wrapped links. Required before wrap/resolve can run.
	Secret string `toml:"secret"`
	Host   string `toml:"host"`
	// Scheme is the app's custom URL scheme; wrapped links resolving to it
	// are refused to prevent reprocessing loops.
	Scheme string `toml:"scheme"`
}

// WebPreview contains configuration for the generic web fallback provider.
type WebPreview struct {
	Enabled        bool `toml:"enabled"`
	RequestTimeout int  `toml:"request_timeout"`
	CacheEnabled   bool `toml:"cache_enabled"`
	// CacheTTLHours bounds how long cached previews are reused.
	CacheTTLHours int `toml:"cache_ttl_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	CaptureQueued  bool   `toml:"capture_queued"`
	RecordReady    bool   `toml:"record_ready"`
	ReviewRequired bool   `toml:"review_required"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for satchel.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Links         Links         `toml:"links"`
	WebPreview    WebPreview    `toml:"web_preview"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/satchel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("satchel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the queue, data, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.QueueDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LibraryDBPath returns the location of the library database.
func (c *Config) LibraryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// PreviewCacheDir returns the location of the web preview cache.
func (c *Config) PreviewCacheDir() string {
	return filepath.Join(c.Paths.DataDir, "previewcache")
}

// ConsumerLockPath returns the lock file guarding single-consumer draining.
func (c *Config) ConsumerLockPath() string {
	return filepath.Join(c.Paths.QueueDir, ".consumer.lock")
}

// LogFilePath returns the mirrored log file inside the log directory.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "satchel.log")
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
