package services_test

import (
	"errors"
	"testing"

	"satchel/internal/library"
	"satchel/internal/services"
)

func TestWrapTagsWithMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrProvider, "enrich", "webpreview", "fetch", cause)

	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestFailureStatusRoutesConflictsToReview(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status library.Status
	}{
		{"conflict", services.Wrap(services.ErrConflict, "pipeline", "process", "location disagreement", nil), library.StatusReviewRequired},
		{"storage", services.Wrap(services.ErrStorage, "library", "update", "busy", nil), library.StatusFailed},
		{"provider", services.Wrap(services.ErrProvider, "enrich", "web", "timeout", nil), library.StatusFailed},
		{"plain", errors.New("unexpected"), library.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureStatus(tc.err); got != tc.status {
				t.Fatalf("FailureStatus = %s, want %s", got, tc.status)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		services.Wrap(services.ErrStorage, "library", "update", "busy", nil),
		services.Wrap(services.ErrProvider, "enrich", "web", "timeout", nil),
		services.Wrap(services.ErrPayloadMissing, "queuedir", "load", "sidecar gone", nil),
	}
	for _, err := range retryable {
		if !services.IsRetryable(err) {
			t.Fatalf("expected %v to be retryable", err)
		}
	}

	terminal := []error{
		services.Wrap(services.ErrConflict, "pipeline", "process", "locked location", nil),
		services.Wrap(services.ErrValidation, "pipeline", "retry", "bad id", nil),
		services.Wrap(services.ErrMalformedLink, "links", "resolve", "missing payload", nil),
		services.Wrap(services.ErrSignature, "links", "resolve", "hmac mismatch", nil),
	}
	for _, err := range terminal {
		if services.IsRetryable(err) {
			t.Fatalf("expected %v to settle without retry", err)
		}
	}
}
