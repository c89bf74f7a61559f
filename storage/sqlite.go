package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viant/docrag/index"
	"github.com/viant/docrag/vector"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// OpenSQLite opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./rag.sqlite". For in-memory
// databases, pass ":memory:". The pool is limited to one connection so an
// in-memory database is shared by every caller.
func OpenSQLite(dsn string) (*sql.DB, error) {
	RegisterFunctions()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: configure sqlite: %w", err)
	}
	return db, nil
}

// ChunkMatch is a chunk row ranked by SearchChunks.
type ChunkMatch struct {
	Position   int
	DocumentID string
	Text       string
	Score      float64
}

// JournalEntry is one persisted change.
type JournalEntry struct {
	Seq        int64
	Revision   int64
	Op         Op
	DocumentID string
	CreatedAt  time.Time
}

// SQLiteStore keeps the snapshot artifacts as rows of rag_artifact and
// records each change in rag_journal, both within one transaction. Every
// chunk is mirrored into rag_chunk with its embedding so it can be ranked in
// SQL with the rag_l2, rag_ip and rag_cosine functions.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteStore creates a store on db, ensuring its schema exists.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: db is nil")
	}
	RegisterFunctions()
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens dsn and creates a store that closes the database on
// Close.
func OpenSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := encodeArtifacts(snapshot)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_artifact`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rag_artifact(name, revision, data) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, name := range []string{indexArtifact, chunksArtifact, documentsArtifact} {
		blob, ok := data[name]
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, name, snapshot.Revision, blob); err != nil {
			return fmt.Errorf("storage: write %s: %w", name, err)
		}
	}
	if err := writeChunks(ctx, tx, snapshot); err != nil {
		return err
	}
	if snapshot.Change.Op != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO rag_journal(revision, op, document_id, created_at) VALUES(?, ?, ?, ?)`,
			snapshot.Revision, string(snapshot.Change.Op), snapshot.Change.DocumentID, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("storage: journal: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, revision, data FROM rag_artifact`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := artifacts{}
	var revision int64
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &revision, &blob); err != nil {
			return nil, err
		}
		data[name] = blob
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	snapshot, err := decodeArtifacts(data)
	if err != nil {
		return nil, &CorruptError{Revision: max(revision, s.journalRevision(ctx)), Err: err}
	}
	snapshot.Revision = revision
	return snapshot, nil
}

func writeChunks(ctx context.Context, tx *sql.Tx, snapshot *Snapshot) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_chunk`); err != nil {
		return err
	}
	var vectors [][]float32
	if snapshot.Index != nil {
		var err error
		if _, _, vectors, err = index.Decode(snapshot.Index); err != nil {
			return err
		}
	}
	owners := make([]string, len(snapshot.Chunks))
	for id, positions := range snapshot.Documents {
		for _, pos := range positions {
			if pos >= 0 && pos < len(owners) {
				owners[pos] = id
			}
		}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rag_chunk(position, document_id, text, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for pos, text := range snapshot.Chunks {
		var blob []byte
		if pos < len(vectors) {
			if blob, err = vector.EncodeEmbedding(vectors[pos]); err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, pos, owners[pos], text, blob); err != nil {
			return fmt.Errorf("storage: write chunk %d: %w", pos, err)
		}
	}
	return nil
}

// SearchChunks ranks the persisted chunks against query in SQL and returns
// the k best. L2 scores ascend, inner product scores descend.
func (s *SQLiteStore) SearchChunks(ctx context.Context, query []float32, metric index.Metric, k int) ([]ChunkMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	var sqlText string
	switch metric {
	case index.L2:
		sqlText = `SELECT position, document_id, text, rag_l2(embedding, ?) AS score FROM rag_chunk WHERE embedding IS NOT NULL ORDER BY score ASC, position ASC LIMIT ?`
	case index.InnerProduct:
		sqlText = `SELECT position, document_id, text, rag_ip(embedding, ?) AS score FROM rag_chunk WHERE embedding IS NOT NULL ORDER BY score DESC, position ASC LIMIT ?`
	default:
		return nil, fmt.Errorf("storage: unsupported metric %q", metric)
	}
	rows, err := s.db.QueryContext(ctx, sqlText, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.Position, &m.DocumentID, &m.Text, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// journalRevision returns the highest journaled revision, or 0.
func (s *SQLiteStore) journalRevision(ctx context.Context) int64 {
	var revision int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) FROM rag_journal`).Scan(&revision); err != nil {
		return 0
	}
	return revision
}

// History returns up to limit journal entries, newest first; limit <= 0
// returns all of them.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]JournalEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	query := `SELECT seq, revision, op, document_id, created_at FROM rag_journal ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var op string
		var createdAt int64
		if err := rows.Scan(&e.Seq, &e.Revision, &op, &e.DocumentID, &createdAt); err != nil {
			return nil, err
		}
		e.Op = Op(op)
		e.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
