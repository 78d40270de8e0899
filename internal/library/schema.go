package library

// Bump when the schema changes; the store recreates tables only when the
// stored version differs.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
    id                TEXT PRIMARY KEY,
    capture_type      TEXT,
    url               TEXT,
    title             TEXT,
    summary           TEXT,
    status            TEXT NOT NULL,
    error_message     TEXT,
    source            TEXT,
    session_id        TEXT,
    master_capture_id TEXT,
    attribution_id    TEXT,
    place_id          TEXT,
    price             TEXT,
    latitude          REAL,
    longitude         REAL,
    raw_payload       BLOB,
    tags_json         TEXT,
    categories_json   TEXT,
    themes_json       TEXT,
    purposes_json     TEXT,
    place_context     TEXT,
    web_context       TEXT,
    document_context  TEXT,
    weather_context   TEXT,
    activity_context  TEXT,
    qr_context        TEXT,
    processing_log    TEXT,
    is_favorite       INTEGER NOT NULL DEFAULT 0,
    retry_count       INTEGER NOT NULL DEFAULT 0,
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
CREATE INDEX IF NOT EXISTS idx_records_master ON records(master_capture_id);

CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    title           TEXT,
    summary         TEXT,
    location_name   TEXT,
    place_id        TEXT,
    latitude        REAL,
    longitude       REAL,
    location_locked INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);
`
