package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"satchel/internal/capture"
	"satchel/internal/library"
	"satchel/internal/logging"
	"satchel/internal/queuedir"
	"satchel/internal/services"
)

// Service bundles the stores session operations need.
type Service struct {
	store  *library.Store
	queue  *queuedir.Store
	logger *slog.Logger
}

// NewService constructs a session service.
func NewService(store *library.Store, queue *queuedir.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		queue:  queue,
		logger: logging.WithComponent(logger, "sessions"),
	}
}

// Attach makes sure the record's session has a metadata row, creating one
// from the record's own fields when the record is the first of its
// session. Existing metadata is never overwritten here; enrichment merges
// handle that with their own priority rules.
func (s *Service) Attach(ctx context.Context, record *library.Record) (*library.SessionMetadata, error) {
	if record == nil || record.SessionID == "" {
		return nil, nil
	}
	session, err := s.store.GetSession(ctx, record.SessionID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &library.SessionMetadata{
		ID:        record.SessionID,
		Title:     record.Title,
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		PlaceID:   record.PlaceID,
	}
	if err := s.store.UpsertSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Debug("session created",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldRecordID, record.ID),
	)
	return session, nil
}

// Siblings returns the non-master records of a master capture.
func (s *Service) Siblings(ctx context.Context, masterCaptureID string) ([]*library.Record, error) {
	if strings.TrimSpace(masterCaptureID) == "" {
		return nil, services.Wrap(services.ErrValidation, "sessions", "siblings", "master capture id is required", nil)
	}
	return s.store.Siblings(ctx, masterCaptureID)
}

// Duplicate clones a session and all its records. Every clone gets a
// freshly generated ID (source IDs are never reused) and is re-enqueued as
// a new queue item so it is enriched independently instead of inheriting
// the source's cached enrichment. Returns the new session ID.
func (s *Service) Duplicate(ctx context.Context, sessionID string) (string, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", services.Wrap(services.ErrValidation, "sessions", "duplicate", fmt.Sprintf("session %s not found", sessionID), nil)
	}
	records, err := s.store.RecordsBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	newSessionID := uuid.NewString()
	clone := *session
	clone.ID = newSessionID
	clone.Title = duplicateTitle(session.Title)
	if err := s.store.UpsertSession(ctx, &clone); err != nil {
		return "", err
	}

	// Map source record IDs to clone IDs first so master references inside
	// the session stay consistent after cloning.
	idMap := make(map[string]string, len(records))
	for _, record := range records {
		idMap[record.ID] = uuid.NewString()
	}

	for _, record := range records {
		cloned := *record
		cloned.ID = idMap[record.ID]
		cloned.SessionID = newSessionID
		if mapped, ok := idMap[record.MasterCaptureID]; ok {
			cloned.MasterCaptureID = mapped
		}
		cloned.Status = library.StatusQueued
		cloned.ErrorMessage = ""
		cloned.RetryCount = 0
		cloned.ProcessingLog = nil
		cloned.AppendLog("duplicated", fmt.Sprintf("cloned from record %s", record.ID))
		if err := s.store.Insert(ctx, &cloned); err != nil {
			return "", err
		}

		item, err := s.enqueueClone(&cloned)
		if err != nil {
			return "", err
		}
		s.logger.Debug("duplicate enqueued",
			logging.String(logging.FieldRecordID, cloned.ID),
			logging.String(logging.FieldSessionID, newSessionID),
			logging.String("queue_item", item.ID),
		)
	}

	s.logger.Info("session duplicated",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String("new_session_id", newSessionID),
		logging.Int("records", len(records)),
	)
	return newSessionID, nil
}

// Merge moves every record of fromID into toID and deletes the source
// session metadata. Destructive: the source session cannot be restored.
func (s *Service) Merge(ctx context.Context, fromID, toID string) (int64, error) {
	if fromID == toID {
		return 0, services.Wrap(services.ErrValidation, "sessions", "merge", "source and target are the same session", nil)
	}
	target, err := s.store.GetSession(ctx, toID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, services.Wrap(services.ErrValidation, "sessions", "merge", fmt.Sprintf("target session %s not found", toID), nil)
	}
	source, err := s.store.GetSession(ctx, fromID)
	if err != nil {
		return 0, err
	}
	if source == nil {
		return 0, services.Wrap(services.ErrValidation, "sessions", "merge", fmt.Sprintf("source session %s not found", fromID), nil)
	}

	moved, err := s.store.MoveSessionRecords(ctx, fromID, toID)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.DeleteSession(ctx, fromID); err != nil {
		return moved, err
	}

	s.logger.Info("sessions merged",
		logging.String("from_session_id", fromID),
		logging.String("to_session_id", toID),
		logging.Int64("records_moved", moved),
	)
	return moved, nil
}

func (s *Service) enqueueClone(record *library.Record) (*capture.Item, error) {
	captureType, ok := capture.ParseType(record.CaptureType)
	if !ok {
		switch {
		case record.URL != "":
			captureType = capture.TypeWeb
		case len(record.RawPayload) > 0:
			captureType = capture.TypeImage
		default:
			captureType = capture.TypeDocument
		}
	}
	desc := capture.Descriptor{
		ID:              record.ID,
		Type:            captureType,
		URL:             record.URL,
		Title:           record.Title,
		SessionID:       record.SessionID,
		MasterCaptureID: record.MasterCaptureID,
	}
	item, err := capture.NewItem(capture.ActionProcess, desc, capture.SourceDuplicate)
	if err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(item); err != nil {
		return nil, err
	}
	return item, nil
}

func duplicateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Copy"
	}
	return title + " (copy)"
}
