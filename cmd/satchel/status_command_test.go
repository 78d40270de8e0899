package main

import (
	"os"
	"strings"
	"testing"

	"satchel/internal/library"
	"satchel/internal/testsupport"
)

func TestStatusReportsQueueAndLibrary(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.SeedRecord(t, env.store, "alpha", library.StatusReady)
	testsupport.SeedRecord(t, env.store, "beta", library.StatusFailed)

	if _, _, err := runCLI(t, []string{"capture", "--url", "https://example.com/menu"}, env.configPath); err != nil {
		t.Fatalf("capture: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Queue directory: "+env.cfg.Paths.QueueDir)
	requireContains(t, out, "Pending items:   1")
	requireContains(t, out, string(library.StatusReady))
	requireContains(t, out, string(library.StatusFailed))
	requireContains(t, out, "total")
}

func TestLogsPrintsRecentLines(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := env.cfg.LogFilePath()
	content := "first line\nsecond line\nthird line\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "second line")
	requireContains(t, out, "third line")
	if strings.Contains(out, "first line") {
		t.Fatalf("expected only the last 2 lines, got %q", out)
	}
}

func TestLogsWithoutLogFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log output at")
}
