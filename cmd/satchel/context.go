package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"satchel/internal/config"
	"satchel/internal/enrich"
	"satchel/internal/enrich/previewcache"
	"satchel/internal/enrich/webpreview"
	"satchel/internal/library"
	"satchel/internal/links"
	"satchel/internal/logging"
	"satchel/internal/pipeline"
	"satchel/internal/queuedir"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the stores and pipeline manager for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *library.Store
	queue   *queuedir.Store
	manager *pipeline.Manager

	cache *previewcache.Cache
}

// withApp opens the library, queue, and enrichment stack, runs fn, and
// tears everything down afterwards.
func (c *commandContext) withApp(fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := library.Open(cfg.LibraryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	queue, err := queuedir.Open(cfg.Paths.QueueDir, logger)
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		queue:  queue,
	}
	defer func() {
		if a.cache != nil {
			_ = a.cache.Close()
		}
	}()

	providers, err := a.buildProviders()
	if err != nil {
		return err
	}

	opts := make([]pipeline.Option, 0, 1)
	if wrapper := c.buildWrapper(cfg); wrapper != nil {
		opts = append(opts, pipeline.WithWrapper(wrapper))
	}
	a.manager = pipeline.NewManager(cfg, queue, store, providers, logger, opts...)

	return fn(a)
}

func (a *app) buildProviders() ([]enrich.Provider, error) {
	if !a.cfg.WebPreview.Enabled {
		return nil, nil
	}
	timeout := time.Duration(a.cfg.WebPreview.RequestTimeout) * time.Second

	var cache *previewcache.Cache
	if a.cfg.WebPreview.CacheEnabled {
		ttl := time.Duration(a.cfg.WebPreview.CacheTTLHours) * time.Hour
		opened, err := previewcache.Open(a.cfg.PreviewCacheDir(), ttl, a.logger)
		if err != nil {
			return nil, err
		}
		a.cache = opened
		cache = opened
	}
	return []enrich.Provider{webpreview.New(timeout, cache, a.logger)}, nil
}

func (c *commandContext) buildWrapper(cfg *config.Config) *links.Wrapper {
	if strings.TrimSpace(cfg.Links.Secret) == "" {
		return nil
	}
	wrapper, err := links.NewWrapper(cfg.Links.Secret, cfg.Links.Host, cfg.Links.Scheme)
	if err != nil {
		return nil
	}
	return wrapper
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
