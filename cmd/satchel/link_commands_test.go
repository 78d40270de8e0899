package main

import (
	"strings"
	"testing"
)

func wrapShareLink(t *testing.T, env *cliTestEnv, url, title string) string {
	t.Helper()
	args := []string{"link", "wrap", url}
	if title != "" {
		args = append(args, "--title", title)
	}
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("link wrap: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return lines[len(lines)-1]
}

func TestLinkWrapAndResolve(t *testing.T) {
	env := setupCLITestEnv(t)

	wrapped := wrapShareLink(t, env, "https://example.com/menu", "Tasting Menu")
	requireContains(t, wrapped, "https://share.example.com/w/")

	out, _, err := runCLI(t, []string{"link", "resolve", wrapped}, env.configPath)
	if err != nil {
		t.Fatalf("link resolve: %v", err)
	}
	requireContains(t, out, "URL:   https://example.com/menu")
	requireContains(t, out, "Title: Tasting Menu")
}

func TestLinkResolveIngestQueuesCapture(t *testing.T) {
	env := setupCLITestEnv(t)

	wrapped := wrapShareLink(t, env, "https://example.com/menu", "")

	out, _, err := runCLI(t, []string{"link", "resolve", "--ingest", wrapped}, env.configPath)
	if err != nil {
		t.Fatalf("link resolve --ingest: %v", err)
	}
	requireContains(t, out, "from wrapped link")

	if files := queueFiles(t, env.cfg); len(files) != 1 {
		t.Fatalf("expected 1 queue file, got %d", len(files))
	}
}

func TestLinkResolveRejectsTamperedSignature(t *testing.T) {
	env := setupCLITestEnv(t)

	wrapped := wrapShareLink(t, env, "https://example.com/menu", "")
	tampered := strings.Replace(wrapped, "s=", "s=00", 1)

	if _, _, err := runCLI(t, []string{"link", "resolve", tampered}, env.configPath); err == nil {
		t.Fatal("expected tampered link to be rejected")
	}
}

func TestLinkWrapRequiresSecret(t *testing.T) {
	env := setupCLITestEnv(t)

	env.cfg.Links.Secret = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"link", "wrap", "https://example.com/menu"}, env.configPath)
	if err == nil {
		t.Fatal("expected wrap without a configured secret to fail")
	}
}
