// Package sessions manages the grouping of captures into sessions and the
// bulk operations over them.
//
// A session clusters captures of one physical moment; its metadata record
// can outlive any single capture. A master capture marks the
// representative item of a multi-shot burst; siblings share its ID.
// Duplication clones a session and re-enqueues every clone for independent
// reprocessing with freshly generated IDs. Merging moves records to the
// target session and deletes the source metadata; it is destructive and
// not reversible.
package sessions
