package webpreview_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"satchel/internal/enrich"
	"satchel/internal/enrich/previewcache"
	"satchel/internal/enrich/webpreview"
	"satchel/internal/logging"
)

func TestEnrichExtractsPageMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
<title>Tartine Bakery</title>
<meta name="description" content="Bread and pastries in the Mission">
<meta property="og:site_name" content="Tartine">
</head><body></body></html>`))
	}))
	defer server.Close()

	provider := webpreview.New(5*time.Second, nil, logging.NewNop())
	data, err := provider.Enrich(context.Background(), enrich.Query{URL: server.URL + "/menu"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if data.Title != "Tartine Bakery" {
		t.Fatalf("title = %q", data.Title)
	}
	if data.DescriptionText != "Bread and pastries in the Mission" {
		t.Fatalf("description = %q", data.DescriptionText)
	}
	if len(data.Categories) != 1 || data.Categories[0] != "Tartine" {
		t.Fatalf("categories = %v", data.Categories)
	}
	if !strings.Contains(data.WebContext, "Tartine") {
		t.Fatalf("expected web context blob, got %q", data.WebContext)
	}
}

func TestEnrichFallsBackToURLTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head></head><body></body></html>`))
	}))
	defer server.Close()

	provider := webpreview.New(5*time.Second, nil, logging.NewNop())
	data, err := provider.Enrich(context.Background(), enrich.Query{URL: server.URL + "/tasting-menu"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if !strings.HasPrefix(data.Title, "Tasting Menu") {
		t.Fatalf("expected derived title, got %q", data.Title)
	}
}

func TestEnrichIgnoresNonWebURLs(t *testing.T) {
	provider := webpreview.New(5*time.Second, nil, logging.NewNop())

	for _, raw := range []string{"", "ftp://example.com/file", "not a url at all"} {
		data, err := provider.Enrich(context.Background(), enrich.Query{URL: raw})
		if err != nil {
			t.Fatalf("Enrich(%q): %v", raw, err)
		}
		if !data.IsZero() {
			t.Fatalf("Enrich(%q) should yield no data, got %+v", raw, data)
		}
	}
}

func TestEnrichErrorsOnNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	provider := webpreview.New(5*time.Second, nil, logging.NewNop())
	if _, err := provider.Enrich(context.Background(), enrich.Query{URL: server.URL}); err == nil {
		t.Fatal("expected error for non-html response")
	}
}

func TestEnrichUsesCacheOnSecondFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Cached Page</title></head><body></body></html>`))
	}))
	defer server.Close()

	cache, err := previewcache.Open(t.TempDir(), time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("previewcache.Open: %v", err)
	}
	defer cache.Close()

	provider := webpreview.New(5*time.Second, cache, logging.NewNop())
	for i := 0; i < 2; i++ {
		data, err := provider.Enrich(context.Background(), enrich.Query{URL: server.URL})
		if err != nil {
			t.Fatalf("Enrich pass %d: %v", i, err)
		}
		if data.Title != "Cached Page" {
			t.Fatalf("pass %d title = %q", i, data.Title)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", hits.Load())
	}
}
