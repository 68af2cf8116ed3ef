package repository

import (
	"context"
	"strings"
)

// Schema is portable across SQLite and Postgres: TEXT keys, JSON payloads
// stored as TEXT, timestamps as TIMESTAMP.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id                TEXT PRIMARY KEY,
    filename          TEXT NOT NULL,
    mime_type         TEXT NOT NULL,
    file_size         INTEGER NOT NULL DEFAULT 0,
    sha256_hash       TEXT NOT NULL,
    storage_path      TEXT NOT NULL,
    processing_status TEXT NOT NULL DEFAULT 'pending',
    processing_logs   TEXT NOT NULL DEFAULT '[]',
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS data_modules (
    dmc                TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    dm_type            TEXT NOT NULL,
    info_variant       TEXT NOT NULL,
    content            TEXT NOT NULL DEFAULT '',
    html_content       TEXT NOT NULL DEFAULT '',
    xml_content        TEXT NOT NULL DEFAULT '',
    source_document_id TEXT NOT NULL,
    applicability      TEXT NOT NULL DEFAULT '{}',
    icn_refs           TEXT NOT NULL DEFAULT '[]',
    dm_refs            TEXT NOT NULL DEFAULT '[]',
    validation_status  TEXT NOT NULL DEFAULT 'blue',
    validation_errors  TEXT NOT NULL DEFAULT '[]',
    ste_score          REAL NOT NULL DEFAULT 0,
    processing_logs    TEXT NOT NULL DEFAULT '[]',
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_data_modules_source_document
    ON data_modules (source_document_id);

CREATE TABLE IF NOT EXISTS icns (
    icn_id         TEXT PRIMARY KEY,
    filename       TEXT NOT NULL,
    file_path      TEXT NOT NULL,
    sha256_hash    TEXT NOT NULL UNIQUE,
    mime_type      TEXT NOT NULL,
    width          INTEGER NOT NULL DEFAULT 0,
    height         INTEGER NOT NULL DEFAULT 0,
    caption        TEXT NOT NULL DEFAULT '',
    objects        TEXT NOT NULL DEFAULT '[]',
    hotspots       TEXT NOT NULL DEFAULT '[]',
    source_page    INTEGER NOT NULL DEFAULT 0,
    security_class TEXT NOT NULL DEFAULT 'UNCLASSIFIED',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS publication_modules (
    pm_code    TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    dm_list    TEXT NOT NULL DEFAULT '[]',
    structure  TEXT NOT NULL DEFAULT '[]',
    status     TEXT NOT NULL DEFAULT 'draft',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// ensureSchema executes the statements one at a time: the pgx stdlib driver
// does not accept multi-statement Exec.
func (db *DB) ensureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
