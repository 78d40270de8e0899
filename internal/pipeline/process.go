package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"satchel/internal/capture"
	"satchel/internal/enrich"
	"satchel/internal/enrich/purpose"
	"satchel/internal/library"
	"satchel/internal/logging"
	"satchel/internal/services"
)

// upsertRecord resolves the library record for a queue item, creating it
// from the descriptor when the capture is new. Descriptor IDs are stable,
// so re-enqueues of the same capture land on the same record. A nil record
// with nil error means the item needs no work (already processing or
// archived).
func (m *Manager) upsertRecord(ctx context.Context, item *capture.Item) (*library.Record, error) {
	desc := item.Descriptor
	record, err := m.store.GetByID(ctx, desc.ID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		switch record.Status {
		case library.StatusProcessing, library.StatusArchived:
			m.logger.Debug("skipping queue item",
				logging.String(logging.FieldRecordID, record.ID),
				logging.String(logging.FieldStatus, string(record.Status)),
			)
			return nil, nil
		}
		return record, nil
	}

	record = recordFromDescriptor(desc, item.Source)
	record.AppendLog("queued", fmt.Sprintf("capture accepted via %s", item.Source))
	if err := m.store.Insert(ctx, record); err != nil {
		return nil, err
	}
	if err := m.notifier.NotifyCaptureQueued(ctx, record.Title, record.CaptureType); err != nil {
		m.logger.Warn("capture notification", logging.Error(err))
	}
	return record, nil
}

func recordFromDescriptor(desc capture.Descriptor, source string) *library.Record {
	record := &library.Record{
		ID:              desc.ID,
		CaptureType:     string(desc.Type),
		URL:             desc.URL,
		Title:           desc.Title,
		Status:          library.StatusQueued,
		Source:          source,
		SessionID:       desc.SessionID,
		MasterCaptureID: desc.MasterCaptureID,
		PlaceID:         desc.PlaceID,
		Price:           desc.Price,
		Tags:            capture.NormalizeStrings(desc.StyleTags),
		Categories:      capture.NormalizeStrings(desc.Categories),
		Purposes:        capture.NormalizeStrings(desc.Purposes),
	}
	if lat, lon, ok := desc.Coordinates(); ok {
		record.Latitude = &lat
		record.Longitude = &lon
	}
	return record
}

// processRecord runs one full enrichment pass and commits the outcome in a
// single update. Prior status is restored if the pass is cancelled before
// the commit.
func (m *Manager) processRecord(ctx context.Context, record *library.Record, item *capture.Item) error {
	prior := record.Status

	if record.Status == library.StatusReady {
		// A re-enqueue against a settled record restarts its lifecycle.
		requeued, err := m.store.Transition(ctx, record.ID, library.StatusQueued, "re-queued for enrichment")
		if err != nil {
			return err
		}
		record = requeued
	}

	record, err := m.store.Transition(ctx, record.ID, library.StatusProcessing, "enrichment started")
	if err != nil {
		return err
	}

	payload, err := m.itemPayload(record, item)
	if err != nil {
		return m.failRecord(ctx, record, err)
	}
	if len(payload) > 0 && len(record.RawPayload) == 0 {
		// Retain the media bytes so the record can be re-enriched later
		// without the producer.
		record.RawPayload = payload
	}

	query := enrich.Query{
		CaptureID:   record.ID,
		CaptureType: record.CaptureType,
		URL:         record.URL,
		Title:       record.Title,
		Description: item.Descriptor.DescriptionText,
		Latitude:    record.Latitude,
		Longitude:   record.Longitude,
		PlaceID:     record.PlaceID,
		Payload:     payload,
	}

	results := m.runner.Run(ctx, query)
	layers := make([]enrich.Result, 0, len(results)+1)
	layers = append(layers, enrich.Result{
		Provider: "manual",
		Priority: enrich.PriorityManual,
		Data:     enrich.ManualData(item.Descriptor),
	})
	layers = append(layers, results...)
	merged := enrich.Merge(layers)

	if ctx.Err() != nil {
		m.restoreStatus(record.ID, prior)
		return ctx.Err()
	}

	applyEnrichment(record, merged)
	record.AppendLog("enriched", describeResults(results))

	session, err := m.sessions.Attach(ctx, record)
	if err != nil {
		return m.failRecord(ctx, record, err)
	}
	if reason, conflicted := m.locationConflict(session, merged); conflicted {
		return m.failRecord(ctx, record, services.Wrap(services.ErrConflict, "pipeline", "process", reason, nil))
	}
	if session != nil && !session.LocationLocked {
		m.adoptSessionLocation(ctx, session, merged)
	}

	m.suggestPurposes(ctx, record)

	if ctx.Err() != nil {
		m.restoreStatus(record.ID, prior)
		return ctx.Err()
	}

	record.Status = library.StatusReady
	record.ErrorMessage = ""
	record.RetryCount = 0
	record.AppendLog("ready", "enrichment complete")
	if err := m.store.Update(ctx, record); err != nil {
		return m.failRecord(ctx, record, err)
	}

	m.logger.Info("record ready",
		logging.String(logging.FieldRecordID, record.ID),
		logging.String("title", record.Title),
	)
	if err := m.notifier.NotifyRecordReady(ctx, record.Title); err != nil {
		m.logger.Warn("ready notification", logging.Error(err))
	}
	return nil
}

// itemPayload resolves the media bytes for a pass: inline envelope bytes
// first, then the spilled sidecar, then the record's retained payload.
func (m *Manager) itemPayload(record *library.Record, item *capture.Item) ([]byte, error) {
	if item.HasInlinePayload() {
		return item.Payload, nil
	}
	if item.PayloadRef != "" {
		return m.queue.LoadPayload(item)
	}
	return record.RawPayload, nil
}

// applyEnrichment folds merged provider data into the record. Scalar fields
// take the merge winner; set-valued fields union.
func applyEnrichment(record *library.Record, merged enrich.Data) {
	if merged.Title != "" {
		record.Title = merged.Title
	}
	if merged.Summary != "" {
		record.Summary = merged.Summary
	} else if record.Summary == "" {
		record.Summary = strings.TrimSpace(merged.DescriptionText)
	}
	record.Tags = capture.MergeStrings(record.Tags, merged.StyleTags)
	record.Categories = capture.MergeStrings(record.Categories, merged.Categories)
	record.Purposes = capture.MergeStrings(record.Purposes, merged.Purposes)
	if merged.Price != "" {
		record.Price = merged.Price
	}
	if merged.PlaceID != "" {
		record.PlaceID = merged.PlaceID
	}
	if merged.HasCoordinates() {
		record.Latitude = merged.Latitude
		record.Longitude = merged.Longitude
	}
	if merged.PlaceContext != "" {
		record.PlaceContext = merged.PlaceContext
	}
	if merged.WebContext != "" {
		record.WebContext = merged.WebContext
	}
	if merged.DocumentContext != "" {
		record.DocumentContext = merged.DocumentContext
	}
	if merged.WeatherContext != "" {
		record.WeatherContext = merged.WeatherContext
	}
	if merged.ActivityContext != "" {
		record.ActivityContext = merged.ActivityContext
	}
}

// locationConflict reports whether merged coordinates disagree with a locked
// session location beyond the configured tolerance. Locked locations are
// user decisions; enrichment may only surface the disagreement.
func (m *Manager) locationConflict(session *library.SessionMetadata, merged enrich.Data) (string, bool) {
	if session == nil || !session.LocationLocked {
		return "", false
	}
	if !session.HasCoordinates() || !merged.HasCoordinates() {
		return "", false
	}
	tolerance := m.cfg.Pipeline.LocationToleranceDegrees
	latDelta := math.Abs(*merged.Latitude - *session.Latitude)
	lonDelta := math.Abs(*merged.Longitude - *session.Longitude)
	if latDelta <= tolerance && lonDelta <= tolerance {
		return "", false
	}
	return fmt.Sprintf("enriched location (%.5f, %.5f) disagrees with locked session location (%.5f, %.5f)",
		*merged.Latitude, *merged.Longitude, *session.Latitude, *session.Longitude), true
}

// adoptSessionLocation backfills an unlocked session's location from merge
// output. Existing session values are never overwritten.
func (m *Manager) adoptSessionLocation(ctx context.Context, session *library.SessionMetadata, merged enrich.Data) {
	changed := false
	if session.LocationName == "" && merged.LocationName != "" {
		session.LocationName = merged.LocationName
		changed = true
	}
	if session.PlaceID == "" && merged.PlaceID != "" {
		session.PlaceID = merged.PlaceID
		changed = true
	}
	if !session.HasCoordinates() && merged.HasCoordinates() {
		session.Latitude = merged.Latitude
		session.Longitude = merged.Longitude
		changed = true
	}
	if !changed {
		return
	}
	if err := m.store.UpsertSession(ctx, session); err != nil {
		m.logger.Warn("update session location",
			logging.Error(err),
			logging.String(logging.FieldSessionID, session.ID),
		)
	}
}

// suggestPurposes runs the purpose suggester over the fully merged record.
// It runs last so suggestions see every provider's contribution. Failures
// degrade silently; suggestions are additive only.
func (m *Manager) suggestPurposes(ctx context.Context, record *library.Record) {
	if m.suggester == nil {
		return
	}
	input := purpose.Input{
		CaptureType:      record.CaptureType,
		URL:              record.URL,
		Title:            record.Title,
		Description:      record.Summary,
		Categories:       record.Categories,
		StyleTags:        record.Tags,
		ExistingPurposes: record.Purposes,
		HasLocation:      record.HasCoordinates(),
	}
	suggestion, err := m.suggester.Suggest(ctx, input)
	if err != nil {
		m.logger.Debug("purpose suggestion failed", logging.Error(err), logging.String(logging.FieldRecordID, record.ID))
		return
	}
	record.Purposes = capture.MergeStrings(record.Purposes, suggestion.Purposes)
	if record.Summary == "" && suggestion.Summary != "" {
		record.Summary = suggestion.Summary
	}
	for _, question := range suggestion.Questions {
		record.AppendLog("question", question)
	}
}

// failRecord commits the failure outcome for cause. The persisted status
// comes from services.FailureStatus: conflicts route to review, everything
// else marks the record failed.
func (m *Manager) failRecord(ctx context.Context, record *library.Record, cause error) error {
	if services.FailureStatus(cause) == library.StatusReviewRequired {
		return m.reviewRecord(ctx, record, cause)
	}
	record.RetryCount++
	record.SetFailed(cause.Error())
	if err := m.store.Update(ctx, record); err != nil {
		m.logger.Error("persist failure", logging.Error(err), logging.String(logging.FieldRecordID, record.ID))
	}
	if err := m.notifier.NotifyError(ctx, cause, "processing "+record.ID); err != nil {
		m.logger.Warn("error notification", logging.Error(err))
	}
	return cause
}

// reviewRecord commits a reviewRequired outcome. Routing to review is a
// successful conversion; the queue item is settled.
func (m *Manager) reviewRecord(ctx context.Context, record *library.Record, cause error) error {
	reason := cause.Error()
	record.Status = library.StatusReviewRequired
	record.ErrorMessage = reason
	record.AppendLog("review", reason)
	if err := m.store.Update(ctx, record); err != nil {
		return err
	}
	m.logger.Info("record routed to review",
		logging.String(logging.FieldRecordID, record.ID),
		logging.String("reason", reason),
	)
	if err := m.notifier.NotifyReviewRequired(ctx, record.Title, reason); err != nil {
		m.logger.Warn("review notification", logging.Error(err))
	}
	return cause
}

func describeResults(results []enrich.Result) string {
	if len(results) == 0 {
		return "no providers configured"
	}
	parts := make([]string, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			parts = append(parts, result.Provider+" (no result)")
			continue
		}
		if result.Data.IsZero() {
			parts = append(parts, result.Provider+" (empty)")
			continue
		}
		parts = append(parts, result.Provider)
	}
	return "providers: " + strings.Join(parts, ", ")
}
