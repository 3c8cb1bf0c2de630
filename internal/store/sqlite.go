package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// DB wraps a SQLite connection with sqlite-vec support.
type DB struct {
	conn *sql.DB
	dims int
	mu   sync.Mutex // serialize writes
}

var _ VectorStore = (*DB)(nil)

// Open opens or creates the database at the given path. dims is the
// embedding dimensionality the vec0 table is created with; an index built
// with different dimensions must be rebuilt from scratch.
func Open(path string, dims int) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := conn.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	db := &DB{conn: conn, dims: dims}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory(dims int) (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// Each sqlite connection gets its own :memory: database; keep the pool
	// at one connection so the schema is visible to every query.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, dims: dims}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS doc_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			doc_id TEXT NOT NULL,
			title TEXT NOT NULL,
			area TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			last_updated TEXT,
			file_path TEXT NOT NULL,
			section TEXT NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_doc_chunks_file_path ON doc_chunks(file_path)`,

		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS doc_chunks_vec USING vec0(
			chunk_rowid INTEGER PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)`, db.dims),
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// Upsert inserts records, replacing any existing record with the same chunk id.
// All records are written in one transaction.
func (db *DB) Upsert(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	chunkStmt, err := tx.Prepare(`
		INSERT INTO doc_chunks (chunk_id, doc_id, title, area, tags, last_updated, file_path, section, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk stmt: %w", err)
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.Prepare("INSERT INTO doc_chunks_vec (chunk_rowid, embedding) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare vec stmt: %w", err)
	}
	defer vecStmt.Close()

	for i, rec := range records {
		if err := deleteByChunkIDTx(tx, rec.ID); err != nil {
			return fmt.Errorf("replace %s: %w", rec.ID, err)
		}

		tagsJSON, _ := json.Marshal(rec.Metadata.Tags)
		if rec.Metadata.Tags == nil {
			tagsJSON = []byte("[]")
		}

		// NULL, not '', when the source never carried a date
		var lastUpdated sql.NullString
		if rec.Metadata.LastUpdated != "" {
			lastUpdated = sql.NullString{String: rec.Metadata.LastUpdated, Valid: true}
		}

		res, err := chunkStmt.Exec(
			rec.ID, rec.Metadata.DocID, rec.Metadata.Title, rec.Metadata.Area,
			string(tagsJSON), lastUpdated, rec.Metadata.FilePath,
			rec.Metadata.Section, rec.Metadata.Text,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}

		rowid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id %d: %w", i, err)
		}

		vecData, err := sqlite_vec.SerializeFloat32(rec.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding %d: %w", i, err)
		}
		if _, err := vecStmt.Exec(rowid, vecData); err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Query performs a KNN search and returns matches ordered by descending
// similarity. Cosine distance is mapped to score = 1 - distance so that
// higher means more relevant.
func (db *DB) Query(vector []float32, topK int) ([]QueryMatch, error) {
	if topK <= 0 {
		topK = 8
	}

	vecData, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT v.distance, c.chunk_id, c.doc_id, c.title, c.area, c.tags,
			c.last_updated, c.file_path, c.section, c.text
		FROM doc_chunks_vec v
		JOIN doc_chunks c ON c.rowid = v.chunk_rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`,
		vecData, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var matches []QueryMatch
	for rows.Next() {
		var (
			distance    float64
			tagsJSON    string
			lastUpdated sql.NullString
			m           QueryMatch
		)
		if err := rows.Scan(
			&distance, &m.ID, &m.Metadata.DocID, &m.Metadata.Title, &m.Metadata.Area,
			&tagsJSON, &lastUpdated, &m.Metadata.FilePath, &m.Metadata.Section, &m.Metadata.Text,
		); err != nil {
			return nil, err
		}

		json.Unmarshal([]byte(tagsJSON), &m.Metadata.Tags)
		if lastUpdated.Valid {
			m.Metadata.LastUpdated = lastUpdated.String
		}
		m.Metadata.ChunkID = m.ID
		m.Score = 1.0 - distance
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Count returns the number of stored chunks.
func (db *DB) Count() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM doc_chunks").Scan(&n)
	return n, err
}

// ListIDs returns up to limit chunk ids in insertion order.
func (db *DB) ListIDs(limit int) ([]string, error) {
	rows, err := db.conn.Query("SELECT chunk_id FROM doc_chunks ORDER BY rowid LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the given chunk ids and their vectors.
func (db *DB) Delete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if err := deleteByChunkIDTx(tx, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeleteBySource removes all chunks indexed from the given source file.
// Used by the watcher before re-upserting a changed file.
func (db *DB) DeleteBySource(filePath string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM doc_chunks_vec WHERE chunk_rowid IN
			(SELECT rowid FROM doc_chunks WHERE file_path = ?)`, filePath); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM doc_chunks WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return tx.Commit()
}

func deleteByChunkIDTx(tx *sql.Tx, chunkID string) error {
	if _, err := tx.Exec(`
		DELETE FROM doc_chunks_vec WHERE chunk_rowid IN
			(SELECT rowid FROM doc_chunks WHERE chunk_id = ?)`, chunkID); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM doc_chunks WHERE chunk_id = ?", chunkID)
	return err
}
