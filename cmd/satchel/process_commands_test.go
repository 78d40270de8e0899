package main

import (
	"testing"

	"github.com/gofrs/flock"
)

func TestProcessEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestProcessDrainsQueuedCapture(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"capture", "--url", "https://example.com/menu"}, env.configPath); err != nil {
		t.Fatalf("capture: %v", err)
	}

	out, _, err := runCLI(t, []string{"process"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "Drained 1 items: 1 converted, 0 retained")

	if files := queueFiles(t, env.cfg); len(files) != 0 {
		t.Fatalf("expected empty queue after drain, found %d files", len(files))
	}
}

func TestProcessSkipsWhenConsumerLockHeld(t *testing.T) {
	env := setupCLITestEnv(t)

	lock := flock.New(env.cfg.ConsumerLockPath())
	held, err := lock.TryLock()
	if err != nil || !held {
		t.Fatalf("acquire consumer lock: held=%v err=%v", held, err)
	}
	defer lock.Unlock()

	out, _, err := runCLI(t, []string{"process"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "Skipped: another consumer is draining the queue")
}
