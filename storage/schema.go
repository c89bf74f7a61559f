package storage

import (
	"context"
	"database/sql"
)

const artifactSchema = `
CREATE TABLE IF NOT EXISTS rag_artifact (
    name     TEXT PRIMARY KEY,
    revision INTEGER NOT NULL,
    data     BLOB
);
`

const journalSchema = `
CREATE TABLE IF NOT EXISTS rag_journal (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    revision    INTEGER NOT NULL,
    op          TEXT NOT NULL,
    document_id TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);
`

const chunkSchema = `
CREATE TABLE IF NOT EXISTS rag_chunk (
    position    INTEGER PRIMARY KEY,
    document_id TEXT NOT NULL,
    text        TEXT NOT NULL,
    embedding   BLOB
);
`

// EnsureSchema creates the artifact, journal and chunk tables if they do not
// exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{artifactSchema, journalSchema, chunkSchema} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
