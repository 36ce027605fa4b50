package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/gravelscan/internal/model"
)

// HistoryFileName is the SQLite database file inside the history directory.
const HistoryFileName = "gravelscan.db"

// Run status values.
const (
	RunCompleted   = "completed"
	RunFailed      = "failed"
	RunInterrupted = "interrupted"
)

// History stores every scrape run and the listings it collected in SQLite.
type History struct {
	db     *sql.DB
	dbPath string
}

// Options configures History behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default history options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenHistory opens or creates the history database in dbDir.
func OpenHistory(dbDir string, opts Options) (*History, error) {
	dbPath := filepath.Join(dbDir, HistoryFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check history path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &History{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *History) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		listing_count INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS run_listings (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		price REAL NOT NULL,
		listing_json TEXT NOT NULL,
		PRIMARY KEY (run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_run_listings_url ON run_listings(url);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run describes one harvest of a query.
type Run struct {
	ID           string
	Query        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	ListingCount int
	Error        string
}

// RecordRun stores a run and its listings in one transaction. An empty
// run.ID is replaced by a new UUID, which is returned.
func (h *History) RecordRun(ctx context.Context, run Run, listings []model.Listing) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = RunCompleted
	}
	run.ListingCount = len(listings)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, query, started_at, finished_at, status, listing_count, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Query,
		run.StartedAt.UTC().Format(storedLayout),
		run.FinishedAt.UTC().Format(storedLayout),
		run.Status,
		run.ListingCount,
		run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_listings (run_id, url, title, price, listing_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare listing insert: %w", err)
	}
	defer stmt.Close()

	for i := range listings {
		l := &listings[i]
		data, err := json.Marshal(l)
		if err != nil {
			return "", fmt.Errorf("failed to serialize listing %s: %w", l.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, l.URL, l.Title, l.Price, string(data)); err != nil {
			return "", fmt.Errorf("failed to insert listing %s: %w", l.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// Runs returns the most recent runs, newest first. An empty query matches
// every query; limit <= 0 means no limit.
func (h *History) Runs(ctx context.Context, query string, limit int) ([]Run, error) {
	q := `
	SELECT id, query, started_at, finished_at, status, listing_count, COALESCE(error, '')
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)
	if query != "" {
		q += " AND query = ?"
		args = append(args, query)
	}
	q += " ORDER BY started_at DESC, rowid DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Query, &started, &finished, &r.Status, &r.ListingCount, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestPair returns the two most recent completed runs of query, older
// first. It returns ErrRunNotFound when fewer than two exist.
func (h *History) LatestPair(ctx context.Context, query string) (Run, Run, error) {
	runs, err := h.Runs(ctx, query, 0)
	if err != nil {
		return Run{}, Run{}, err
	}
	var completed []Run
	for _, r := range runs {
		if r.Status == RunCompleted {
			completed = append(completed, r)
		}
		if len(completed) == 2 {
			return completed[1], completed[0], nil
		}
	}
	return Run{}, Run{}, fmt.Errorf("%w: need two completed runs of %q", ErrRunNotFound, query)
}

// RunListings returns the listings recorded for a run.
func (h *History) RunListings(ctx context.Context, runID string) (*model.Collection, error) {
	var exists int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT listing_json FROM run_listings
	WHERE run_id = ?
	ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run listings: %w", err)
	}
	defer rows.Close()

	c := model.NewCollection()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		var l model.Listing
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			continue
		}
		c.Add(l)
	}
	return c, rows.Err()
}

// Queries returns every query that has at least one recorded run.
func (h *History) Queries(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT query FROM runs ORDER BY query`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// FirstSeen returns when url first appeared in any recorded run.
func (h *History) FirstSeen(ctx context.Context, url string) (time.Time, error) {
	var started string
	err := h.db.QueryRowContext(ctx, `
	SELECT r.started_at FROM run_listings l
	JOIN runs r ON r.id = l.run_id
	WHERE l.url = ?
	ORDER BY r.started_at ASC
	LIMIT 1`, url).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: no run contains %s", ErrRunNotFound, url)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to look up %s: %w", url, err)
	}
	return parseTimestamp(started), nil
}

// storedLayout has a fixed width so that stored timestamps sort as text.
const storedLayout = "2006-01-02 15:04:05.000000000"

// timestampFormats lists the layouts SQLite may hand back, most specific
// first.
var timestampFormats = []string{
	storedLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
