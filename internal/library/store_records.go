package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const recordColumns = `id, capture_type, url, title, summary, status, error_message, source,
    session_id, master_capture_id, attribution_id, place_id, price, latitude, longitude,
    raw_payload, tags_json, categories_json, themes_json, purposes_json,
    place_context, web_context, document_context, weather_context, activity_context, qr_context,
    processing_log, is_favorite, retry_count, created_at, updated_at`

// Insert persists a new record. The caller owns ID generation.
func (s *Store) Insert(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.ID == "" {
		return errors.New("record id is required")
	}
	if _, ok := ParseStatus(string(record.Status)); !ok {
		return fmt.Errorf("unknown status %q", record.Status)
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.execWithRetry(
		ensureContext(ctx),
		`INSERT INTO records (`+recordColumns+`) VALUES (`+makePlaceholders(31)+`)`,
		record.ID,
		nullableString(record.CaptureType),
		nullableString(record.URL),
		nullableString(record.Title),
		nullableString(record.Summary),
		record.Status,
		nullableString(record.ErrorMessage),
		nullableString(record.Source),
		nullableString(record.SessionID),
		nullableString(record.MasterCaptureID),
		nullableString(record.AttributionID),
		nullableString(record.PlaceID),
		nullableString(record.Price),
		nullableFloat(record.Latitude),
		nullableFloat(record.Longitude),
		record.RawPayload,
		marshalStrings(record.Tags),
		marshalStrings(record.Categories),
		marshalStrings(record.Themes),
		marshalStrings(record.Purposes),
		nullableString(record.PlaceContext),
		nullableString(record.WebContext),
		nullableString(record.DocumentContext),
		nullableString(record.WeatherContext),
		nullableString(record.ActivityContext),
		nullableString(record.QRContext),
		marshalStrings(record.ProcessingLog),
		boolToInt(record.IsFavorite),
		record.RetryCount,
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Update persists changes to an existing record.
func (s *Store) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	record.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE records SET
            capture_type = ?, url = ?, title = ?, summary = ?, status = ?, error_message = ?,
            source = ?, session_id = ?, master_capture_id = ?, attribution_id = ?, place_id = ?,
            price = ?, latitude = ?, longitude = ?, raw_payload = ?,
            tags_json = ?, categories_json = ?, themes_json = ?, purposes_json = ?,
            place_context = ?, web_context = ?, document_context = ?, weather_context = ?,
            activity_context = ?, qr_context = ?, processing_log = ?, is_favorite = ?,
            retry_count = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(record.CaptureType),
		nullableString(record.URL),
		nullableString(record.Title),
		nullableString(record.Summary),
		record.Status,
		nullableString(record.ErrorMessage),
		nullableString(record.Source),
		nullableString(record.SessionID),
		nullableString(record.MasterCaptureID),
		nullableString(record.AttributionID),
		nullableString(record.PlaceID),
		nullableString(record.Price),
		nullableFloat(record.Latitude),
		nullableFloat(record.Longitude),
		record.RawPayload,
		marshalStrings(record.Tags),
		marshalStrings(record.Categories),
		marshalStrings(record.Themes),
		marshalStrings(record.Purposes),
		nullableString(record.PlaceContext),
		nullableString(record.WebContext),
		nullableString(record.DocumentContext),
		nullableString(record.WeatherContext),
		nullableString(record.ActivityContext),
		nullableString(record.QRContext),
		marshalStrings(record.ProcessingLog),
		boolToInt(record.IsFavorite),
		record.RetryCount,
		record.UpdatedAt.Format(time.RFC3339Nano),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s not found", record.ID)
	}
	return nil
}

// GetByID fetches a record by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// List returns records filtered by status set (or all records when no
// status is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + recordColumns + ` FROM records`
	orderClause := ` ORDER BY created_at`

	ctx = ensureContext(ctx)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// RecordsBySession returns the records attached to a session.
func (s *Store) RecordsBySession(ctx context.Context, sessionID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM records WHERE session_id = ? ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("records by session: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Siblings returns the non-master records sharing a master capture ID.
func (s *Store) Siblings(ctx context.Context, masterCaptureID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM records WHERE master_capture_id = ? AND id != ? ORDER BY created_at`,
		masterCaptureID,
		masterCaptureID,
	)
	if err != nil {
		return nil, fmt.Errorf("siblings: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Transition moves a record to a new status after validating the state
// machine, appending a log entry describing the move.
func (s *Store) Transition(ctx context.Context, id string, to Status, logMessage string) (*Record, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %s not found", id)
	}
	if !CanTransition(record.Status, to) {
		return nil, fmt.Errorf("invalid transition %s -> %s for record %s", record.Status, to, id)
	}
	record.Status = to
	if to != StatusFailed {
		record.ErrorMessage = ""
	}
	if logMessage != "" {
		record.AppendLog(string(to), logMessage)
	}
	if err := s.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Remove deletes a record by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates record state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusProcessing:
			health.Processing += count
		case StatusReady:
			health.Ready += count
		case StatusFailed:
			health.Failed += count
		case StatusReviewRequired:
			health.ReviewRequired += count
		case StatusArchived:
			health.Archived += count
		}
	}
	return health, nil
}

func marshalStrings(values []string) any {
	if len(values) == 0 {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(data)
}

func unmarshalStrings(value sql.NullString) []string {
	if !value.Valid || value.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value.String), &values); err != nil {
		return nil
	}
	return values
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		captureType     sql.NullString
		url             sql.NullString
		title           sql.NullString
		summary         sql.NullString
		statusStr       string
		errorMessage    sql.NullString
		source          sql.NullString
		sessionID       sql.NullString
		masterCaptureID sql.NullString
		attributionID   sql.NullString
		placeID         sql.NullString
		price           sql.NullString
		latitude        sql.NullFloat64
		longitude       sql.NullFloat64
		rawPayload      []byte
		tags            sql.NullString
		categories      sql.NullString
		themes          sql.NullString
		purposes        sql.NullString
		placeContext    sql.NullString
		webContext      sql.NullString
		documentContext sql.NullString
		weatherContext  sql.NullString
		activityContext sql.NullString
		qrContext       sql.NullString
		processingLog   sql.NullString
		isFavorite      sql.NullInt64
		retryCount      sql.NullInt64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&captureType,
		&url,
		&title,
		&summary,
		&statusStr,
		&errorMessage,
		&source,
		&sessionID,
		&masterCaptureID,
		&attributionID,
		&placeID,
		&price,
		&latitude,
		&longitude,
		&rawPayload,
		&tags,
		&categories,
		&themes,
		&purposes,
		&placeContext,
		&webContext,
		&documentContext,
		&weatherContext,
		&activityContext,
		&qrContext,
		&processingLog,
		&isFavorite,
		&retryCount,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		CaptureType:     captureType.String,
		URL:             url.String,
		Title:           title.String,
		Summary:         summary.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		Source:          source.String,
		SessionID:       sessionID.String,
		MasterCaptureID: masterCaptureID.String,
		AttributionID:   attributionID.String,
		PlaceID:         placeID.String,
		Price:           price.String,
		RawPayload:      rawPayload,
		Tags:            unmarshalStrings(tags),
		Categories:      unmarshalStrings(categories),
		Themes:          unmarshalStrings(themes),
		Purposes:        unmarshalStrings(purposes),
		PlaceContext:    placeContext.String,
		WebContext:      webContext.String,
		DocumentContext: documentContext.String,
		WeatherContext:  weatherContext.String,
		ActivityContext: activityContext.String,
		QRContext:       qrContext.String,
		ProcessingLog:   unmarshalStrings(processingLog),
	}
	if latitude.Valid {
		v := latitude.Float64
		record.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		record.Longitude = &v
	}
	if isFavorite.Valid {
		record.IsFavorite = isFavorite.Int64 != 0
	}
	if retryCount.Valid {
		record.RetryCount = int(retryCount.Int64)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}
