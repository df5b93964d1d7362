// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an append-only SQLite log of conversion runs for
// diagnostics. Nothing in the conversion path reads it back.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

const timeLayout = time.RFC3339Nano

// Run identifies one CLI invocation.
type Run struct {
	ID        string
	Command   string
	StartedAt time.Time
}

// Entry is one recorded conversion.
type Entry struct {
	RunID      string
	Path       string
	SourceHash string
	Format     types.Format
	Strategy   types.Strategy
	Converter  string
	Success    bool
	Error      string
	Attempts   []string
	Duration   time.Duration
	RecordedAt time.Time
}

// EntryFor builds an Entry from the outcome of converting path. When the
// conversion failed with a *convert.ConversionError its attempts are kept.
func EntryFor(path string, r *types.Result, err error) Entry {
	e := Entry{Path: path, Success: err == nil && r != nil}
	if r != nil {
		e.SourceHash = r.Metadata.SourceHash
		e.Format = r.Provenance.Format
		e.Strategy = r.Provenance.Strategy
		e.Converter = r.Provenance.Converter
		e.Duration = r.Metadata.Duration
		for _, a := range r.Provenance.Attempts {
			e.Attempts = append(e.Attempts, oneLine(a.String()))
		}
	}
	if err != nil {
		e.Error = err.Error()
		var ce *convert.ConversionError
		if errors.As(err, &ce) {
			e.Format = ce.Format
			for _, a := range ce.Attempts {
				e.Attempts = append(e.Attempts, oneLine(a.String()))
			}
		}
	}
	return e
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Store is the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS conversions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,
			source_sha256 TEXT,
			format TEXT,
			strategy TEXT,
			converter TEXT,
			success INTEGER NOT NULL,
			error TEXT,
			attempts TEXT,
			duration_ms INTEGER,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_path ON conversions(path)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a run and returns its generated id.
func (s *Store) BeginRun(ctx context.Context, command string) (Run, error) {
	run := Run{ID: uuid.NewString(), Command: command, StartedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Command, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// Record appends one conversion to run runID.
func (s *Store) Record(ctx context.Context, runID string, e Entry) error {
	success := 0
	if e.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions
			(run_id, path, source_sha256, format, strategy, converter, success, error, attempts, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Path, e.SourceHash, string(e.Format), string(e.Strategy), e.Converter,
		success, e.Error, strings.Join(e.Attempts, "\n"), e.Duration.Milliseconds(),
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting conversion: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and outcome counts.
func (s *Store) FinishRun(ctx context.Context, runID string, converted, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, failed = ? WHERE id = ?`,
		s.now().UTC().Format(timeLayout), converted, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// Recent returns up to limit conversions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, source_sha256, format, strategy, converter, success, error, attempts, duration_ms, recorded_at
		FROM conversions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                           Entry
			hash, errText, attempts     sql.NullString
			format, strategy, converter sql.NullString
			success                     int
			durationMS                  sql.NullInt64
			recordedAt                  string
		)
		if err := rows.Scan(&e.RunID, &e.Path, &hash, &format, &strategy, &converter,
			&success, &errText, &attempts, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		e.SourceHash = hash.String
		e.Format = types.Format(format.String)
		e.Strategy = types.Strategy(strategy.String)
		e.Converter = converter.String
		e.Success = success == 1
		e.Error = errText.String
		if attempts.String != "" {
			e.Attempts = strings.Split(attempts.String, "\n")
		}
		e.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		e.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
