// Package queuedir implements the durable capture queue as one file per
// item in a shared directory.
//
// Producers (the main app, share extensions, widgets) enqueue by writing a
// uniquely named file; the pipeline consumes by scanning and deleting.
// Because every item is its own file with a ULID name, multi-process
// enqueue needs no locking and the scan order matches creation order.
// Writes go to a temp file first and are renamed into place, so a reader
// never observes a partial item. Removal is idempotent: deleting an
// already-deleted item succeeds.
//
// The directory is the source of truth. There is no in-memory queue state;
// every drain re-scans, which keeps a second drain shortly after the first
// cheap and makes crash recovery automatic (at-least-once delivery).
package queuedir
