package library_test

import (
	"strings"
	"testing"

	"satchel/internal/library"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  library.Status
		ok    bool
	}{
		{"queued", library.StatusQueued, true},
		{"REVIEWREQUIRED", library.StatusReviewRequired, true},
		{" ready ", library.StatusReady, true},
		{"", "", false},
		{"pending", "", false},
	}
	for _, tc := range cases {
		got, ok := library.ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to library.Status }{
		{library.StatusQueued, library.StatusProcessing},
		{library.StatusProcessing, library.StatusReady},
		{library.StatusProcessing, library.StatusReviewRequired},
		{library.StatusProcessing, library.StatusFailed},
		{library.StatusReady, library.StatusQueued},
		{library.StatusReady, library.StatusArchived},
		{library.StatusFailed, library.StatusQueued},
		{library.StatusFailed, library.StatusProcessing},
		{library.StatusReviewRequired, library.StatusReady},
		{library.StatusReviewRequired, library.StatusProcessing},
		{library.StatusReviewRequired, library.StatusArchived},
	}
	for _, tc := range allowed {
		if !library.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to library.Status }{
		{library.StatusQueued, library.StatusReady},
		{library.StatusReady, library.StatusProcessing},
		{library.StatusArchived, library.StatusQueued},
		{library.StatusArchived, library.StatusReady},
		{library.StatusProcessing, library.StatusQueued},
	}
	for _, tc := range denied {
		if library.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestIsReentrant(t *testing.T) {
	if !library.IsReentrant(library.StatusQueued) {
		t.Fatal("queued should be reentrant")
	}
	if !library.IsReentrant(library.StatusReviewRequired) {
		t.Fatal("reviewRequired should be reentrant")
	}
	if library.IsReentrant(library.StatusReady) {
		t.Fatal("ready should not be reentrant")
	}
	if library.IsReentrant(library.StatusArchived) {
		t.Fatal("archived should not be reentrant")
	}
}

func TestAppendLogFormatsEntries(t *testing.T) {
	record := &library.Record{}
	record.AppendLog("queued", "capture accepted")
	if len(record.ProcessingLog) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(record.ProcessingLog))
	}
	entry := record.ProcessingLog[0]
	if !strings.Contains(entry, "[queued] capture accepted") {
		t.Fatalf("unexpected log entry %q", entry)
	}
}

func TestSetFailed(t *testing.T) {
	record := &library.Record{Status: library.StatusProcessing}
	record.SetFailed("provider exploded")
	if record.Status != library.StatusFailed {
		t.Fatalf("expected failed status, got %s", record.Status)
	}
	if record.ErrorMessage != "provider exploded" {
		t.Fatalf("unexpected error message %q", record.ErrorMessage)
	}
	if len(record.ProcessingLog) == 0 {
		t.Fatal("expected failure logged")
	}
}
