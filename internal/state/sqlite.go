package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "state: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "state: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_files (
	name         TEXT PRIMARY KEY,
	processed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_log (
	id           TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	events_added INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_run_log_started_at ON run_log(started_at);
`

const (
	metaLatestURL     = "latest_url"
	metaLastProcessed = "last_processed"
)

// Migrate creates the state schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "state: migrate")
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the persisted reconciliation state.
func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	st := NewState()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return st, eris.Wrap(err, "state: load meta")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return st, eris.Wrap(err, "state: scan meta")
		}
		switch k {
		case metaLatestURL:
			st.LatestURL = v
		case metaLastProcessed:
			st.LastProcessed = v
		}
	}
	if err := rows.Err(); err != nil {
		return st, eris.Wrap(err, "state: iterate meta")
	}

	files, err := s.db.QueryContext(ctx, `SELECT name FROM processed_files`)
	if err != nil {
		return st, eris.Wrap(err, "state: load processed files")
	}
	defer files.Close() //nolint:errcheck
	for files.Next() {
		var name string
		if err := files.Scan(&name); err != nil {
			return st, eris.Wrap(err, "state: scan processed file")
		}
		st.Processed[name] = true
	}
	return st, eris.Wrap(files.Err(), "state: iterate processed files")
}

// Save upserts the markers and inserts any newly processed filenames. The
// processed set only ever grows.
func (s *SQLiteStore) Save(ctx context.Context, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "state: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	upsert := `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, metaLatestURL, st.LatestURL); err != nil {
		return eris.Wrap(err, "state: save latest url")
	}
	if _, err := tx.ExecContext(ctx, upsert, metaLastProcessed, st.LastProcessed); err != nil {
		return eris.Wrap(err, "state: save last processed")
	}

	for name := range st.Processed {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO processed_files (name) VALUES (?)`, name,
		); err != nil {
			return eris.Wrapf(err, "state: save processed file %s", name)
		}
	}

	return eris.Wrap(tx.Commit(), "state: commit")
}

// StartRun records the beginning of a reconciliation run and returns its ID.
func (s *SQLiteStore) StartRun(ctx context.Context, mode string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_log (id, mode, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, mode, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "state: start %s run", mode)
	}
	return id, nil
}

// CompleteRun marks a run as successfully completed.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, eventsAdded int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE run_log SET status = 'complete', completed_at = ?, events_added = ? WHERE id = ?`,
		time.Now().UTC(), eventsAdded, runID,
	)
	return eris.Wrapf(err, "state: complete run %s", runID)
}

// FailRun marks a run as failed with an error message.
func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE run_log SET status = 'failed', completed_at = ?, error = ? WHERE id = ?`,
		time.Now().UTC(), errMsg, runID,
	)
	return eris.Wrapf(err, "state: fail run %s", runID)
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, started_at, completed_at, events_added, error
		 FROM run_log ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "state: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Mode, &r.Status, &r.StartedAt, &completedAt, &r.EventsAdded, &errMsg); err != nil {
			return nil, eris.Wrap(err, "state: scan run")
		}
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}
