package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cargodocs/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  folder TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  countsJson TEXT NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_traceId ON runs(traceId);

CREATE TABLE IF NOT EXISTS file_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  filename TEXT NOT NULL,
  status TEXT NOT NULL,
  messagesJson TEXT NOT NULL,
  pdfPages INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_file_results_runId ON file_results(runId);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a batch run together with its per-file outcomes.
func (d *DB) InsertRun(run internal.RunRecord) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	countsJSON, _ := json.Marshal(run.Counts)
	res, err := tx.Exec(`
INSERT INTO runs (traceId, folder, subject, sender, countsJson, durationMs)
VALUES (?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Folder, run.Subject, run.Sender, string(countsJSON), run.DurationMs)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO file_results (runId, filename, status, messagesJson, pdfPages)
VALUES (?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, f := range run.Files {
		messagesJSON, _ := json.Marshal(f.Messages)
		if _, err := stmt.Exec(runID, f.Filename, f.Status, string(messagesJSON), f.PDFPages); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first, with their file
// results attached. limit <= 0 means no limit.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	query := `
SELECT id, traceId, folder, subject, sender, countsJson, durationMs, createdAt
FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var run internal.RunRecord
		var countsJSON string
		if err := rows.Scan(
			&run.ID, &run.TraceID, &run.Folder, &run.Subject, &run.Sender,
			&countsJSON, &run.DurationMs, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(countsJSON), &run.Counts)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		files, err := d.listFileResults(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Files = files
	}
	return out, nil
}

func (d *DB) listFileResults(runID int64) ([]internal.FileResult, error) {
	rows, err := d.conn.Query(`
SELECT filename, status, messagesJson, pdfPages
FROM file_results WHERE runId = ? ORDER BY id
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FileResult
	for rows.Next() {
		var f internal.FileResult
		var messagesJSON string
		if err := rows.Scan(&f.Filename, &f.Status, &messagesJSON, &f.PDFPages); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(messagesJSON), &f.Messages)
		out = append(out, f)
	}
	return out, rows.Err()
}
