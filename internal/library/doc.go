// Package library persists processed captures and their session metadata
// in SQLite and owns the record status state machine.
//
// Records are keyed by the capture's stable descriptor ID so re-enqueues
// upsert instead of duplicating. The pipeline is the single writer of
// status and processing_log while a pass is in flight; readers may observe
// records at any time and must treat status as eventually consistent.
//
// Schema changes bump schemaVersion in schema.go.
package library
