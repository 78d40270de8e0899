package testsupport

import (
	"context"
	"testing"

	"satchel/internal/capture"
	"satchel/internal/config"
	"satchel/internal/library"
	"satchel/internal/logging"
	"satchel/internal/queuedir"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg.LibraryDBPath())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenQueue opens a queuedir.Store over the test config's queue
// directory.
func MustOpenQueue(t testing.TB, cfg *config.Config) *queuedir.Store {
	t.Helper()

	store, err := queuedir.Open(cfg.Paths.QueueDir, logging.NewNop())
	if err != nil {
		t.Fatalf("queuedir.Open: %v", err)
	}
	return store
}

// NewWebDescriptor builds a valid web capture descriptor for tests.
func NewWebDescriptor(id, url string) capture.Descriptor {
	return capture.Descriptor{
		ID:   id,
		Type: capture.TypeWeb,
		URL:  url,
	}
}

// NewWebItem creates and validates a save item for a web capture.
func NewWebItem(t testing.TB, id, url string) *capture.Item {
	t.Helper()

	item, err := capture.NewItem(capture.ActionSave, NewWebDescriptor(id, url), capture.SourceCapture)
	if err != nil {
		t.Fatalf("capture.NewItem: %v", err)
	}
	return item
}

// SeedRecord inserts a record in the given status and returns it.
func SeedRecord(t testing.TB, store *library.Store, id string, status library.Status) *library.Record {
	t.Helper()

	record := &library.Record{
		ID:          id,
		CaptureType: string(capture.TypeWeb),
		URL:         "https://example.com/" + id,
		Title:       "Record " + id,
		Status:      status,
		Source:      capture.SourceCapture,
	}
	if err := store.Insert(context.Background(), record); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return record
}
