package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/anchorlint/anchorlint/internal/record"
)

// PageLog provides SQLite-based storage for crawl runs. Each run stores the
// pages fetched and the finalized report, so successive CI runs of the same
// site can be compared.
type PageLog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PageLog behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PageLog at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*PageLog, error) {
	dbPath := filepath.Join(dbDir, "anchorlint.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pl := &PageLog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pl.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pl, nil
}

// Close closes the database connection.
func (pl *PageLog) Close() error {
	return pl.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (pl *PageLog) createTables() error {
	schema := `
	-- Runs store one row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME,
		error_count INTEGER,
		report_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages store individual page fetches within a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := pl.db.ExecContext(context.Background(), schema)
	return err
}

// BeginRun records the start of a crawl run and returns its id.
func (pl *PageLog) BeginRun(ctx context.Context, site string) (int64, error) {
	result, err := pl.db.ExecContext(ctx, `INSERT INTO runs (site) VALUES (?)`, site)
	if err != nil {
		return 0, fmt.Errorf("failed to begin run: %w", err)
	}
	return result.LastInsertId()
}

// PageRecord represents one fetched page within a run.
type PageRecord struct {
	ID          int64
	RunID       int64
	URL         string
	StatusCode  int
	ContentType string
	Title       string
	FetchedAt   time.Time
}

// LogPage inserts or updates a page fetch for a run.
// Uses UPSERT so a re-fetch of the same URL updates the existing row.
func (pl *PageLog) LogPage(ctx context.Context, page *PageRecord) error {
	query := `
	INSERT INTO pages (run_id, url, status_code, content_type, title)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		fetched_at = CURRENT_TIMESTAMP
	`

	if _, err := pl.db.ExecContext(ctx, query,
		page.RunID,
		page.URL,
		page.StatusCode,
		page.ContentType,
		page.Title,
	); err != nil {
		return fmt.Errorf("failed to log page: %w", err)
	}
	return nil
}

// CompleteRun stores the finalized report against the run.
func (pl *PageLog) CompleteRun(ctx context.Context, runID int64, report *record.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	UPDATE runs SET completed_at = CURRENT_TIMESTAMP, error_count = ?, report_json = ?
	WHERE id = ?
	`

	if _, err := pl.db.ExecContext(ctx, query, report.ErrorCount(), string(reportJSON), runID); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetLatestReport retrieves the most recent completed report for a site.
// Returns nil without error when no completed run exists.
func (pl *PageLog) GetLatestReport(ctx context.Context, site string) (*record.Report, error) {
	query := `
	SELECT report_json FROM runs
	WHERE site = ? AND report_json IS NOT NULL
	ORDER BY started_at DESC
	LIMIT 1
	`

	var reportJSON string
	err := pl.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report record.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetPages retrieves all pages logged for a run, ordered by URL.
func (pl *PageLog) GetPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	query := `
	SELECT id, run_id, url, status_code, content_type, title, fetched_at
	FROM pages
	WHERE run_id = ?
	ORDER BY url
	`

	rows, err := pl.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var page PageRecord
		var fetchedAt string

		if err := rows.Scan(
			&page.ID,
			&page.RunID,
			&page.URL,
			&page.StatusCode,
			&page.ContentType,
			&page.Title,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.FetchedAt = parseTimestamp(fetchedAt)
		results = append(results, page)
	}

	return results, rows.Err()
}

// ListSites returns every site with at least one run, ordered by name.
func (pl *PageLog) ListSites(ctx context.Context) ([]string, error) {
	rows, err := pl.db.QueryContext(ctx, `SELECT DISTINCT site FROM runs ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
