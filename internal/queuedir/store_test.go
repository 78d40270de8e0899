package queuedir_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"satchel/internal/capture"
	"satchel/internal/logging"
	"satchel/internal/queuedir"
	"satchel/internal/testsupport"
)

func openStore(t *testing.T) *queuedir.Store {
	t.Helper()
	store, err := queuedir.Open(filepath.Join(t.TempDir(), "queue"), logging.NewNop())
	if err != nil {
		t.Fatalf("queuedir.Open: %v", err)
	}
	return store
}

func TestEnqueueListRoundTrip(t *testing.T) {
	store := openStore(t)

	item := testsupport.NewWebItem(t, "cap-1", "https://example.com/menu")
	path, err := store.Enqueue(item)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Fatalf("expected .json queue file, got %s", path)
	}

	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(pending))
	}
	got := pending[0].Item
	if got.ID != item.ID || got.Descriptor.ID != "cap-1" || got.Action != capture.ActionSave {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestListPendingOrdersByCreation(t *testing.T) {
	store := openStore(t)

	ids := []string{"cap-a", "cap-b", "cap-c"}
	for _, id := range ids {
		if _, err := store.Enqueue(testsupport.NewWebItem(t, id, "https://example.com/"+id)); err != nil {
			t.Fatalf("Enqueue %s: %v", id, err)
		}
	}

	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != len(ids) {
		t.Fatalf("expected %d items, got %d", len(ids), len(pending))
	}
	for i, id := range ids {
		if pending[i].Item.Descriptor.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, pending[i].Item.Descriptor.ID)
		}
	}
}

func TestLargePayloadSpillsToSidecar(t *testing.T) {
	store := openStore(t)

	item := testsupport.NewWebItem(t, "cap-big", "https://example.com/photo")
	payload := testsupport.PayloadBytes(300 * 1024)
	item.Payload = payload

	if _, err := store.Enqueue(item); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(pending))
	}
	envelope := pending[0].Item
	if len(envelope.Payload) != 0 {
		t.Fatalf("expected payload spilled out of envelope, got %d inline bytes", len(envelope.Payload))
	}
	if envelope.PayloadRef == "" {
		t.Fatal("expected payload sidecar reference")
	}

	loaded, err := store.LoadPayload(envelope)
	if err != nil {
		t.Fatalf("LoadPayload: %v", err)
	}
	if !bytes.Equal(loaded, payload) {
		t.Fatal("sidecar payload does not match original bytes")
	}

	if err := store.Remove(pending[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), envelope.PayloadRef)); !os.IsNotExist(err) {
		t.Fatal("expected payload sidecar removed with the item")
	}
}

func TestSmallPayloadStaysInline(t *testing.T) {
	store := openStore(t)

	item := testsupport.NewWebItem(t, "cap-small", "https://example.com/note")
	item.Payload = testsupport.PayloadBytes(512)

	if _, err := store.Enqueue(item); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || len(pending[0].Item.Payload) != 512 {
		t.Fatalf("expected inline payload of 512 bytes, got %+v", pending[0].Item.PayloadRef)
	}
}

func TestListPendingSkipsCorruptFiles(t *testing.T) {
	store := openStore(t)

	if _, err := store.Enqueue(testsupport.NewWebItem(t, "cap-ok", "https://example.com/ok")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	testsupport.WriteQueueFile(t, store.Dir(), "00000000000000000000000001.json", []byte("{not json"))
	testsupport.WriteQueueFile(t, store.Dir(), "00000000000000000000000002.json", []byte(`{"id":"","action":"save"}`))

	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected corrupt files skipped, got %d items", len(pending))
	}
	if pending[0].Item.Descriptor.ID != "cap-ok" {
		t.Fatalf("expected surviving item cap-ok, got %s", pending[0].Item.Descriptor.ID)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := openStore(t)

	if _, err := store.Enqueue(testsupport.NewWebItem(t, "cap-1", "https://example.com")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	pending, err := store.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if err := store.Remove(pending[0]); err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if err := store.Remove(pending[0]); err != nil {
		t.Fatalf("second Remove should be a no-op, got %v", err)
	}

	count, err := store.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty queue, got %d", count)
	}
}

func TestLoadPayloadMissingSidecar(t *testing.T) {
	store := openStore(t)

	item := testsupport.NewWebItem(t, "cap-1", "https://example.com")
	item.PayloadRef = "gone.payload"
	if _, err := store.LoadPayload(item); err == nil {
		t.Fatal("expected error for missing payload sidecar")
	}
}
