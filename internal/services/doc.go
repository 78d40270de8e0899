// Package services defines the shared error taxonomy for the capture
// pipeline and its providers.
//
// Errors are tagged with sentinel markers (ErrStorage, ErrProvider,
// ErrConflict, ...) via Wrap so callers can classify failures with
// errors.Is without string matching. FailureStatus maps a classified error
// to the library status the pipeline should persist: conflicts route to
// review, everything else to failed.
package services
