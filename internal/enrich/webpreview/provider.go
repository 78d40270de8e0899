// Package webpreview implements the generic web fallback enrichment
// provider: it fetches the capture's URL and extracts title, description,
// and OpenGraph metadata from the page head.
//
// It sits at the lowest merge priority, so anything a structured provider
// or the user supplied wins over what the page claims about itself.
// Results are cached so reprocessing does not refetch.
package webpreview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"satchel/internal/capture"
	"satchel/internal/enrich"
	"satchel/internal/enrich/previewcache"
	"satchel/internal/logging"
)

const (
	userAgent = "Satchel/0.1 (+https://github.com/satchel-app/satchel)"

	// Pages larger than this are truncated before parsing; head metadata
	// lives at the front.
	maxBodyBytes = 1 << 20
)

// Provider fetches web previews. A nil cache disables caching.
type Provider struct {
	client *http.Client
	cache  *previewcache.Cache
	logger *slog.Logger
}

// New builds the provider with the given request timeout.
func New(timeout time.Duration, cache *previewcache.Cache, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		logger: logging.WithComponent(logger, "webpreview"),
	}
}

func (p *Provider) Name() string { return "webpreview" }

func (p *Provider) Priority() int { return enrich.PriorityFallback }

// Enrich fetches and parses the query URL. Captures without a URL yield an
// empty result rather than an error.
func (p *Provider) Enrich(ctx context.Context, query enrich.Query) (enrich.Data, error) {
	target := strings.TrimSpace(query.URL)
	if target == "" {
		return enrich.Data{}, nil
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return enrich.Data{}, nil
	}

	if p.cache != nil {
		if entry, err := p.cache.Get(target); err == nil && entry != nil {
			return entryToData(*entry), nil
		}
	}

	entry, err := p.fetch(ctx, target)
	if err != nil {
		return enrich.Data{}, err
	}

	if entry.Title == "" {
		entry.Title = titleFromURL(parsed)
	}

	if p.cache != nil {
		if err := p.cache.Put(target, *entry); err != nil {
			p.logger.Warn("failed to cache preview",
				logging.Error(err),
				logging.String("url", target),
				logging.String(logging.FieldEventType, "preview_cache_write_failed"),
			)
		}
	}
	return entryToData(*entry), nil
}

func (p *Provider) fetch(ctx context.Context, target string) (*previewcache.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("fetch %s: not an html page (%s)", target, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	meta := extractMetadata(body)
	entry := &previewcache.Entry{
		URL:         target,
		Title:       meta.title,
		Description: meta.description,
		SiteName:    meta.siteName,
		ImageURL:    meta.imageURL,
		Canonical:   meta.canonical,
	}
	return entry, nil
}

func entryToData(entry previewcache.Entry) enrich.Data {
	webContext := marshalWebContext(entry)
	return enrich.Data{
		Title:           entry.Title,
		DescriptionText: entry.Description,
		Categories:      categoriesForEntry(entry),
		WebContext:      webContext,
	}
}

func categoriesForEntry(entry previewcache.Entry) []string {
	if entry.SiteName == "" {
		return nil
	}
	return capture.MergeStrings(nil, []string{entry.SiteName})
}

func marshalWebContext(entry previewcache.Entry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(data)
}
