package library

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a library record.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusProcessing     Status = "processing"
	StatusReady          Status = "ready"
	StatusFailed         Status = "failed"
	StatusReviewRequired Status = "reviewRequired"
	StatusArchived       Status = "archived"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusReady,
	StatusFailed,
	StatusReviewRequired,
	StatusArchived,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// validTransitions encodes the record state machine. Processing outcomes
// are decided by the pipeline; archived is terminal.
var validTransitions = map[Status][]Status{
	StatusQueued:         {StatusProcessing},
	StatusProcessing:     {StatusReady, StatusReviewRequired, StatusFailed},
	StatusReady:          {StatusQueued, StatusArchived},
	StatusFailed:         {StatusQueued, StatusProcessing, StatusArchived},
	StatusReviewRequired: {StatusReady, StatusProcessing, StatusArchived},
	StatusArchived:       nil,
}

// reentrant statuses are picked up by a drain pass without user action.
var reentrant = map[Status]struct{}{
	StatusQueued:         {},
	StatusReviewRequired: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a stored string into a known Status.
func ParseStatus(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	for status := range statusSet {
		if strings.EqualFold(trimmed, string(status)) {
			return status, true
		}
	}
	return "", false
}

// CanTransition reports whether the state machine permits from → to.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsReentrant reports whether a status re-enters processing automatically
// on the next drain.
func IsReentrant(status Status) bool {
	_, ok := reentrant[status]
	return ok
}

// Record is a persisted, user-visible capture.
type Record struct {
	// ID equals the capture descriptor's stable ID except for duplicated
	// records, which always receive freshly generated IDs.
	ID              string
	CaptureType     string
	URL             string
	Title           string
	Summary         string
	Status          Status
	ErrorMessage    string
	Source          string
	SessionID       string
	MasterCaptureID string
	AttributionID   string
	PlaceID         string
	Price           string
	Latitude        *float64
	Longitude       *float64
	// RawPayload retains the original media bytes so a record can be
	// re-enriched without the producer.
	RawPayload []byte
	Tags       []string
	Categories []string
	Themes     []string
	Purposes   []string
	// Context blobs are stored as provider-shaped JSON documents.
	PlaceContext    string
	WebContext      string
	DocumentContext string
	WeatherContext  string
	ActivityContext string
	QRContext       string
	// ProcessingLog is the append-only audit trail shown to the user.
	ProcessingLog []string
	IsFavorite    bool
	RetryCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AppendLog appends a timestamped entry to the record's audit trail.
func (r *Record) AppendLog(stage, message string) {
	entry := fmt.Sprintf("%s [%s] %s", time.Now().UTC().Format(time.RFC3339), stage, message)
	r.ProcessingLog = append(r.ProcessingLog, entry)
}

// SetFailed marks the record failed with a human-readable reason.
func (r *Record) SetFailed(reason string) {
	r.Status = StatusFailed
	r.ErrorMessage = reason
	r.AppendLog("failed", reason)
}

// HasCoordinates reports whether the record carries a position.
func (r *Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SessionMetadata groups the captures of one user session. It can outlive
// any single record and is the unit of bulk reprocessing, merge, and
// duplication.
type SessionMetadata struct {
	ID           string
	Title        string
	Summary      string
	LocationName string
	PlaceID      string
	Latitude     *float64
	Longitude    *float64
	// LocationLocked is set by a manual edit; enrichment may not overwrite
	// a locked location, only surface conflicts for review.
	LocationLocked bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasCoordinates reports whether the session carries a position.
func (s *SessionMetadata) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total          int
	Queued         int
	Processing     int
	Ready          int
	Failed         int
	ReviewRequired int
	Archived       int
}
