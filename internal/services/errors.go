package services

import (
	"errors"
	"fmt"
	"strings"

	"satchel/internal/library"
)

var (
	// ErrStorage marks queue or database I/O failures. Items stay queued
	// and are retried on the next drain.
	ErrStorage = errors.New("storage error")
	// ErrMalformedItem marks queue files that cannot be decoded. Scans skip
	// them; they never block a drain.
	ErrMalformedItem = errors.New("malformed queue item")
	// ErrProvider marks a single enrichment provider failure or timeout.
	// Non-fatal: the affected fields simply stay empty.
	ErrProvider = errors.New("provider error")
	// ErrConflict marks enrichment data that disagrees with locked values.
	// Never auto-resolved; the record routes to review.
	ErrConflict = errors.New("conflict")
	// ErrMalformedLink marks wrapped links missing mandatory fields.
	ErrMalformedLink = errors.New("malformed link")
	// ErrSignature marks wrapped links whose HMAC does not verify.
	ErrSignature = errors.New("signature mismatch")
	// ErrPayloadMissing marks queue items whose referenced payload cannot
	// be loaded. The record fails with an explicit reason.
	ErrPayloadMissing = errors.New("payload missing")
	// ErrValidation marks bad caller input.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStorage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a pipeline error to the record status that should be
// persisted after processing fails. Conflicts need a human decision; all
// other failures are retryable.
func FailureStatus(err error) library.Status {
	if errors.Is(err, ErrConflict) {
		return library.StatusReviewRequired
	}
	return library.StatusFailed
}

// IsRetryable reports whether the next drain pass should pick the work up
// again without user action.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrMalformedLink),
		errors.Is(err, ErrSignature):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
