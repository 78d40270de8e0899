package webpreview

import (
	"net/url"
	"testing"
)

func TestExtractMetadataPrefersOpenGraph(t *testing.T) {
	body := []byte(`<!DOCTYPE html>
<html><head>
<title>  Plain   Title </title>
<meta name="description" content="Plain description">
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description">
<meta property="og:site_name" content="Example Site">
<meta property="og:image" content="https://example.com/cover.jpg">
<link rel="canonical" href="https://example.com/canonical">
</head><body><title>Body Title</title></body></html>`)

	meta := extractMetadata(body)
	if meta.title != "OG Title" {
		t.Fatalf("title = %q, want OG value", meta.title)
	}
	if meta.description != "OG description" {
		t.Fatalf("description = %q, want OG value", meta.description)
	}
	if meta.siteName != "Example Site" {
		t.Fatalf("siteName = %q", meta.siteName)
	}
	if meta.imageURL != "https://example.com/cover.jpg" {
		t.Fatalf("imageURL = %q", meta.imageURL)
	}
	if meta.canonical != "https://example.com/canonical" {
		t.Fatalf("canonical = %q", meta.canonical)
	}
}

func TestExtractMetadataFallsBackToPlainTags(t *testing.T) {
	body := []byte(`<html><head>
<title>Plain
Title</title>
<meta name="Description" content="  A   plain description  ">
</head><body></body></html>`)

	meta := extractMetadata(body)
	if meta.title != "Plain Title" {
		t.Fatalf("title = %q, want collapsed plain title", meta.title)
	}
	if meta.description != "A plain description" {
		t.Fatalf("description = %q", meta.description)
	}
}

func TestExtractMetadataSurvivesGarbage(t *testing.T) {
	meta := extractMetadata([]byte("<<<<not actually html"))
	if meta.title != "" || meta.description != "" {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
}

func TestTitleFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://www.example.com/tasting-menu.html", "Tasting Menu · example.com"},
		{"https://example.com/posts/why_go_is_fun/", "Why Go Is Fun · example.com"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
	}
	for _, tc := range cases {
		parsed, err := url.Parse(tc.raw)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.raw, err)
		}
		if got := titleFromURL(parsed); got != tc.want {
			t.Fatalf("titleFromURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
