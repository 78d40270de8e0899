// Package capture defines the value types that travel through the queue:
// the Descriptor describing a logical capture and the QueueItem envelope
// that makes it durable.
//
// Descriptors are immutable once enqueued. Their ID is client-generated and
// stable across retries of the same logical capture; the pipeline uses it
// for idempotent upserts. QueueItem IDs identify one queue entry, not the
// capture, and are freshly generated for every enqueue.
package capture
