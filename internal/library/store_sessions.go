package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = `id, title, summary, location_name, place_id, latitude, longitude,
    location_locked, created_at, updated_at`

// UpsertSession inserts or updates session metadata by ID.
func (s *Store) UpsertSession(ctx context.Context, session *SessionMetadata) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if session.ID == "" {
		return errors.New("session id is required")
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	_, err := s.execWithRetry(
		ensureContext(ctx),
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (`+makePlaceholders(10)+`)
         ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            summary = excluded.summary,
            location_name = excluded.location_name,
            place_id = excluded.place_id,
            latitude = excluded.latitude,
            longitude = excluded.longitude,
            location_locked = excluded.location_locked,
            updated_at = excluded.updated_at`,
		session.ID,
		nullableString(session.Title),
		nullableString(session.Summary),
		nullableString(session.LocationName),
		nullableString(session.PlaceID),
		nullableFloat(session.Latitude),
		nullableFloat(session.Longitude),
		boolToInt(session.LocationLocked),
		session.CreatedAt.Format(time.RFC3339Nano),
		session.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession fetches session metadata by identifier. Returns nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionMetadata, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]*SessionMetadata, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*SessionMetadata
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// MoveSessionRecords reassigns all records from one session to another.
// Returns the number of records moved.
func (s *Store) MoveSessionRecords(ctx context.Context, fromID, toID string) (int64, error) {
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE records SET session_id = ?, updated_at = ? WHERE session_id = ?`,
		toID,
		time.Now().UTC().Format(time.RFC3339Nano),
		fromID,
	)
	if err != nil {
		return 0, fmt.Errorf("move session records: %w", err)
	}
	return res.RowsAffected()
}

// DeleteSession removes session metadata. Records referencing it are the
// caller's responsibility; merges move them first.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ensureContext(ctx), `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// LockSessionLocation records a manual location edit and locks it against
// enrichment overwrites.
func (s *Store) LockSessionLocation(ctx context.Context, id, locationName, placeID string, lat, lon float64) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		session = &SessionMetadata{ID: id}
	}
	session.LocationName = locationName
	session.PlaceID = placeID
	session.Latitude = &lat
	session.Longitude = &lon
	session.LocationLocked = true
	return s.UpsertSession(ctx, session)
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*SessionMetadata, error) {
	var (
		id           string
		title        sql.NullString
		summary      sql.NullString
		locationName sql.NullString
		placeID      sql.NullString
		latitude     sql.NullFloat64
		longitude    sql.NullFloat64
		locked       sql.NullInt64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&summary,
		&locationName,
		&placeID,
		&latitude,
		&longitude,
		&locked,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &SessionMetadata{
		ID:           id,
		Title:        title.String,
		Summary:      summary.String,
		LocationName: locationName.String,
		PlaceID:      placeID.String,
	}
	if latitude.Valid {
		v := latitude.Float64
		session.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		session.Longitude = &v
	}
	if locked.Valid {
		session.LocationLocked = locked.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}
