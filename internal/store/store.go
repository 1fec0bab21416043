// Package store wraps the embedded SQLite database loaded with the FTS5
// and sqlite-vec extensions: schema creation, transactions, and the CRUD
// surface the rest of querysense builds on. Grounded in the teacher's
// internal/db/db.go and the original querysense-sqlite/src/lib.rs schema.
package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/go-ports/querysense/internal/models"
	"github.com/go-ports/querysense/internal/qerrors"
	"github.com/go-ports/querysense/internal/template"
)

func init() { //nolint:gochecknoinits // registers sqlite-vec extension with go-sqlite3 before any DB connection opens
	vec.Auto()
}

// Store wraps a *sql.DB opened against a single querysense database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path and creates the
// base schema (everything except vec_record, whose dimension is only
// known once an embedding provider is consulted — see EnsureVecTable).
func Open(path string) (*Store, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: store.Open: %v", qerrors.ErrStore, err)
	}
	s := &Store{db: sqldb, path: path}
	if err := s.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS raw_record(
			id integer primary key,
			email text,
			nombre text,
			sexo text,
			fecha_nacimiento text,
			edad integer not null,
			provincia text,
			ciudad text,
			descripcion text,
			estudios text,
			experiencia text,
			estudios_mas_recientes text
		)`,
		`CREATE TABLE IF NOT EXISTS record(
			id integer primary key,
			email text,
			provincia text,
			ciudad text,
			edad integer not null,
			sexo text,
			template text
		)`,
		`CREATE TABLE IF NOT EXISTS history(
			id integer primary key,
			query_text text not null unique,
			timestamp datetime default current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS meta(
			key text primary key,
			value text not null
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS lex_record USING fts5(
			email, edad, provincia, ciudad, sexo, template,
			content='record', content_rowid='id'
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS lex_history USING fts5(
			query_text,
			content='history', content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS history_ai AFTER INSERT ON history BEGIN
			INSERT INTO lex_history(rowid, query_text) VALUES (new.id, new.query_text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS history_au AFTER UPDATE ON history BEGIN
			UPDATE lex_history SET query_text = new.query_text WHERE rowid = old.id;
		END`,
		`CREATE TRIGGER IF NOT EXISTS history_ad AFTER DELETE ON history BEGIN
			DELETE FROM lex_history WHERE rowid = old.id;
		END`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("%w: createSchema: %v\nSQL: %s", qerrors.ErrStore, err, q)
		}
	}

	// If a vector dimension was already persisted from a previous run,
	// recreate vec_record so the table survives process restarts.
	if dim, ok, err := s.GetEmbeddingDim(); err == nil && ok {
		if err := s.createVecTable(dim); err != nil {
			return fmt.Errorf("%w: createSchema vec_record: %v", qerrors.ErrStore, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Vector table / dimension enforcement
// ---------------------------------------------------------------------------

func (s *Store) createVecTable(dim int) error {
	_, err := s.db.Exec(fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_record USING vec0(
			row_id INTEGER PRIMARY KEY,
			embedding float[%d]
		)`, dim,
	))
	return err
}

// HasVecTable reports whether vec_record currently exists.
func (s *Store) HasVecTable() (bool, error) {
	var name string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='vec_record'`,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// DropVecTable drops vec_record if it exists (used by force-rebuild).
func (s *Store) DropVecTable() error {
	_, err := s.db.Exec("DROP TABLE IF EXISTS vec_record")
	return err
}

// GetEmbeddingDim reads the persisted embedding dimension, if any.
func (s *Store) GetEmbeddingDim() (int, bool, error) {
	val, ok, err := s.GetMeta("embedding_dim")
	if !ok || err != nil {
		return 0, false, err
	}
	dim, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return dim, true, nil
}

// SetEmbeddingDim persists the embedding dimension.
func (s *Store) SetEmbeddingDim(dim int) error {
	return s.SetMeta("embedding_dim", strconv.Itoa(dim))
}

// EnsureVecTable ensures vec_record exists with dimension dim. If a
// dimension was already persisted and differs, it returns
// ErrDimensionMismatch rather than silently truncating or padding vectors.
func (s *Store) EnsureVecTable(dim int) error {
	stored, ok, err := s.GetEmbeddingDim()
	if err != nil {
		return err
	}
	if !ok {
		if err := s.SetEmbeddingDim(dim); err != nil {
			return err
		}
		return s.createVecTable(dim)
	}
	if stored != dim {
		return fmt.Errorf("%w: store has dimension %d, provider returned %d",
			qerrors.ErrDimensionMismatch, stored, dim)
	}
	return s.createVecTable(dim)
}

// ---------------------------------------------------------------------------
// Meta
// ---------------------------------------------------------------------------

// GetMeta returns the value for key, or ("", false, nil) if unset.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetMeta upserts a key/value pair in the meta table.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES (?, ?)`, key, value)
	return err
}

// ---------------------------------------------------------------------------
// Force rebuild
// ---------------------------------------------------------------------------

// Reset empties the lex_record index, drops record, raw_record and
// vec_record (if present) and recreates the base tables, used by
// `sync --force`.
func (s *Store) Reset() error {
	for _, q := range []string{
		"INSERT INTO lex_record(lex_record) VALUES('delete-all')",
		"DROP TABLE IF EXISTS record",
		"DROP TABLE IF EXISTS raw_record",
		"DROP TABLE IF EXISTS vec_record",
		"DELETE FROM meta WHERE key = 'embedding_dim'",
	} {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("%w: Reset: %v", qerrors.ErrStore, err)
		}
	}
	return s.createSchema()
}

// ---------------------------------------------------------------------------
// Ingestion: raw_record + projection into record/lex_record
// ---------------------------------------------------------------------------

// CountRecords returns the number of rows currently in `record`.
func (s *Store) CountRecords() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM record`).Scan(&n)
	return n, err
}

// InsertRawRecords inserts a batch of raw rows inside a single transaction,
// matching the Ingestor's per-file transaction contract.
func (s *Store) InsertRawRecords(rows []models.RawRecord) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertRawRecords begin: %v", qerrors.ErrStore, err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO raw_record(
			email, nombre, sexo, fecha_nacimiento, edad,
			provincia, ciudad, descripcion, estudios,
			estudios_mas_recientes, experiencia
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: InsertRawRecords prepare: %v", qerrors.ErrStore, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		if _, err := stmt.Exec(
			r.Email, r.FullName, r.Sex, r.Birthdate, r.Age,
			r.Province, r.City, r.Description, r.Studies,
			r.RecentStudies, r.Experience,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%w: InsertRawRecords exec: %v", qerrors.ErrStore, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: InsertRawRecords commit: %v", qerrors.ErrStore, err)
	}
	return inserted, nil
}

// ProjectRecords bulk-populates `record` from `raw_record` using the
// compiled template's SQL expression, mirroring the original
// `insert_base_data`'s bulk INSERT...SELECT. It does not touch
// lex_record; that is PopulateLexRecord's job, run independently by the
// `fts`/`all` sync strategies (the original's `sync_fts_tnea`).
func (s *Store) ProjectRecords(tmpl *template.Template) (int, error) {
	projectQ := fmt.Sprintf(`
		INSERT INTO record(email, provincia, ciudad, edad, sexo, template)
		SELECT email, provincia, ciudad, edad, sexo, %s AS template
		FROM raw_record`, tmpl.SQL)

	res, err := s.db.Exec(projectQ)
	if err != nil {
		return 0, fmt.Errorf("%w: ProjectRecords: %v", qerrors.ErrStore, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PopulateLexRecord bulk-populates `lex_record` from `record` and runs
// the FTS5 'optimize' special command — a one-shot insert-then-optimize,
// not per-row triggers, matching the original `sync_fts_tnea`. Safe to
// call on an already-populated lex_record only once per ProjectRecords
// call; re-running without an intervening Reset would duplicate rows.
func (s *Store) PopulateLexRecord() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: PopulateLexRecord begin: %v", qerrors.ErrStore, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO lex_record(rowid, email, edad, provincia, ciudad, sexo, template)
		SELECT id, email, edad, provincia, ciudad, sexo, template FROM record`,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: PopulateLexRecord insert: %v", qerrors.ErrStore, err)
	}
	if _, err := tx.Exec(`INSERT INTO lex_record(lex_record) VALUES('optimize')`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: PopulateLexRecord optimize: %v", qerrors.ErrStore, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: PopulateLexRecord commit: %v", qerrors.ErrStore, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Embeddings
// ---------------------------------------------------------------------------

// IDTemplatePairs returns every (id, template_text) row in `record`,
// the Embedding Pipeline's read-side of sync.
func (s *Store) IDTemplatePairs() ([]IDTemplate, error) {
	rows, err := s.db.Query(`SELECT id, template FROM record`)
	if err != nil {
		return nil, fmt.Errorf("%w: IDTemplatePairs: %v", qerrors.ErrStore, err)
	}
	defer rows.Close()

	var out []IDTemplate
	for rows.Next() {
		var it IDTemplate
		if err := rows.Scan(&it.ID, &it.Template); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// IDTemplate is a single (id, template_text) pair read from `record`.
type IDTemplate struct {
	ID       uint64
	Template string
}

// IDVector is a single (row_id, vector) pair ready for persistence.
type IDVector struct {
	ID     uint64
	Vector []float32
}

// InsertEmbeddings persists a chunk of (row_id, vector) pairs in a single
// transaction: all-or-nothing per chunk, matching sync_vec_tnea's
// per-chunk BEGIN/insert-loop/COMMIT.
func (s *Store) InsertEmbeddings(pairs []IDVector) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertEmbeddings begin: %v", qerrors.ErrStore, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO vec_record(row_id, embedding) VALUES (?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: InsertEmbeddings prepare: %v", qerrors.ErrStore, err)
	}
	defer stmt.Close()

	n := 0
	for _, p := range pairs {
		if _, err := stmt.Exec(p.ID, EncodeVector(p.Vector)); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%w: InsertEmbeddings exec: %v", qerrors.ErrStore, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: InsertEmbeddings commit: %v", qerrors.ErrStore, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// RecordHistory inserts or replaces a history row keyed by query_text,
// refreshing its timestamp on re-execution.
func (s *Store) RecordHistory(query string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO history(query_text) VALUES (?)`, query)
	if err != nil {
		return fmt.Errorf("%w: RecordHistory: %v", qerrors.ErrStore, err)
	}
	return nil
}

// ListHistory returns every history row, most recent first.
func (s *Store) ListHistory() ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT id, query_text, timestamp FROM history ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: ListHistory: %v", qerrors.ErrStore, err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var h models.HistoryEntry
		var ts string
		if err := rows.Scan(&h.ID, &h.QueryText, &ts); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.DateTime, ts); err == nil {
			h.Timestamp = t
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Raw connection access (for the Search Engine's dynamic queries)
// ---------------------------------------------------------------------------

// DB returns the underlying *sql.DB for use by the Search Engine's query
// builder, which must compose arbitrary per-strategy SQL.
func (s *Store) DB() *sql.DB { return s.db }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// EncodeVector encodes a []float32 as little-endian bytes, the
// sqlite-vec wire format; D*4 bytes for a dimension-D vector. Exported
// so the Search Engine can bind query-time embeddings the same way
// stored ones are encoded.
func EncodeVector(floats []float32) []byte {
	b := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}
