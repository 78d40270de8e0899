package pipeline

import (
	"context"
	"fmt"
	"strings"

	"satchel/internal/capture"
	"satchel/internal/library"
	"satchel/internal/links"
	"satchel/internal/logging"
	"satchel/internal/services"
)

// EnqueueCapture validates a descriptor and writes a durable queue item for
// it. The producer returns as soon as the file is on disk; enrichment
// happens on the next drain.
func (m *Manager) EnqueueCapture(ctx context.Context, action capture.Action, desc capture.Descriptor, source string, payload []byte) (*capture.Item, string, error) {
	item, err := capture.NewItem(action, desc, source)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "capture", "build queue item", err)
	}
	item.Payload = payload

	path, err := m.queue.Enqueue(item)
	if err != nil {
		return nil, "", err
	}
	m.logger.Info("capture queued",
		logging.String(logging.FieldCaptureID, desc.ID),
		logging.String(logging.FieldQueueFile, path),
		logging.String("source", source),
	)
	return item, path, nil
}

// Retry re-queues a failed record for another enrichment pass. The retry
// counter resets so the manual action gets a full budget.
func (m *Manager) Retry(ctx context.Context, recordID string) (*library.Record, error) {
	record, err := m.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "retry", fmt.Sprintf("record %s not found", recordID), nil)
	}
	if record.Status != library.StatusFailed {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "retry", fmt.Sprintf("record %s is %s, not failed", recordID, record.Status), nil)
	}

	record, err = m.store.Transition(ctx, recordID, library.StatusQueued, "manual retry")
	if err != nil {
		return nil, err
	}
	record.RetryCount = 0
	record.ErrorMessage = ""
	if err := m.store.Update(ctx, record); err != nil {
		return nil, err
	}
	if _, _, err := m.enqueueRecord(record, capture.SourceRetry); err != nil {
		return nil, err
	}
	return record, nil
}

// Confirm resolves a record in review by accepting its current data.
func (m *Manager) Confirm(ctx context.Context, recordID string) (*library.Record, error) {
	return m.store.Transition(ctx, recordID, library.StatusReady, "review confirmed")
}

// Archive retires a record. Archived is terminal; the record stays readable
// but no drain or trigger touches it again.
func (m *Manager) Archive(ctx context.Context, recordID string) (*library.Record, error) {
	return m.store.Transition(ctx, recordID, library.StatusArchived, "archived")
}

// Reprocess sends one ready record back through enrichment using its
// retained payload.
func (m *Manager) Reprocess(ctx context.Context, recordID string) (*library.Record, error) {
	record, err := m.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "reprocess", fmt.Sprintf("record %s not found", recordID), nil)
	}
	if record.Status != library.StatusReady {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "reprocess", fmt.Sprintf("record %s is %s, not ready", recordID, record.Status), nil)
	}
	record, err = m.store.Transition(ctx, recordID, library.StatusQueued, "re-queued for reprocessing")
	if err != nil {
		return nil, err
	}
	if _, _, err := m.enqueueRecord(record, capture.SourceReprocess); err != nil {
		return nil, err
	}
	return record, nil
}

// RefreshProcessedItems re-queues every ready record for a fresh enrichment
// pass, typically after provider configuration changes.
func (m *Manager) RefreshProcessedItems(ctx context.Context) (int, error) {
	ready, err := m.store.List(ctx, library.StatusReady)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, record := range ready {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		if _, err := m.Reprocess(ctx, record.ID); err != nil {
			m.logger.Warn("refresh skipped record",
				logging.Error(err),
				logging.String(logging.FieldRecordID, record.ID),
			)
			continue
		}
		count++
	}
	m.logger.Info("refresh queued", logging.Int("records", count))
	return count, nil
}

// IngestWrappedLink verifies a signed share link and queues its target as a
// fresh web capture. The link's canonical ID doubles as the descriptor ID,
// so re-ingesting the same link lands on the same record.
func (m *Manager) IngestWrappedLink(ctx context.Context, raw string) (*capture.Item, error) {
	if m.wrapper == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "ingest", "link secret not configured", nil)
	}
	payload, err := m.wrapper.ResolvePayload(raw)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		// Compact links verify but carry no payload; there is nothing to
		// capture without a local resolver.
		return nil, services.Wrap(services.ErrPayloadMissing, "pipeline", "ingest", "link carries no payload", nil)
	}
	desc := capture.Descriptor{
		ID:    "link-" + m.wrapper.ID(payload.URL),
		Type:  capture.TypeWeb,
		URL:   payload.URL,
		Title: payload.Title,
	}
	item, _, err := m.EnqueueCapture(ctx, capture.ActionSave, desc, capture.SourceDeepLink, nil)
	return item, err
}

// WrapLink produces a signed share link for a target URL.
func (m *Manager) WrapLink(target, title string) (string, error) {
	if m.wrapper == nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "wrap", "link secret not configured", nil)
	}
	return m.wrapper.Wrap(target, links.Payload{URL: target, Title: strings.TrimSpace(title)})
}

// enqueueRecord rebuilds a queue item from a persisted record so triggers
// can reuse the drain path.
func (m *Manager) enqueueRecord(record *library.Record, source string) (*capture.Item, string, error) {
	captureType, ok := capture.ParseType(record.CaptureType)
	if !ok {
		captureType = capture.TypeDocument
	}
	desc := capture.Descriptor{
		ID:              record.ID,
		Type:            captureType,
		URL:             record.URL,
		Title:           record.Title,
		SessionID:       record.SessionID,
		MasterCaptureID: record.MasterCaptureID,
	}
	item, err := capture.NewItem(capture.ActionProcess, desc, source)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "enqueue", "rebuild queue item", err)
	}
	path, err := m.queue.Enqueue(item)
	if err != nil {
		return nil, "", err
	}
	return item, path, nil
}
