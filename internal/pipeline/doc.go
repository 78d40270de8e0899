// Package pipeline drains the capture queue and drives library records
// through enrichment and the status state machine.
//
// The Manager is the single consumer of the queue directory and the sole
// authority over record status. Each trigger (foreground action, periodic
// refresh, notification) runs one bounded drain pass; there is no
// long-running loop except watch mode, which just repeats passes on an
// interval. Items are drained in creation order, one record at a time, so
// status transitions and the processing log stay deterministic. Within a
// record's pass, providers fan out concurrently with individual timeouts
// and merge by priority, so completion order never changes the outcome.
//
// Queue files are removed only after their record is committed; a crash
// mid-pass leaves the file in place and the next drain picks it up again
// (at-least-once delivery).
package pipeline
