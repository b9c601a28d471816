// Package store persists what survives between runs: classified party
// profiles and the history of update passes, both in a single SQLite
// database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/avosseberg/pollgrid"
)

// ErrRunNotFound marks an update to a run id the database has never
// seen.
var ErrRunNotFound = errors.New("run not found")

// Store manages the pollgrid database.
type Store struct {
	db *sql.DB
}

// Run is one recorded update pass over a country's sources.
type Run struct {
	RunID        uuid.UUID  `json:"run_id"`
	Country      string     `json:"country"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Sources      int        `json:"sources"`
	Observations int        `json:"observations"`
	Skipped      int        `json:"skipped"`
}

// New opens the database at the given path, creating the schema when
// missing.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS party_profiles (
		link TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT,
		ideology TEXT,
		url TEXT,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		sources INTEGER DEFAULT 0,
		observations INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Profile returns the cached profile for a party link. The bool
// reports whether the link was found.
func (s *Store) Profile(link string) (pollgrid.PartyProfile, bool, error) {
	query := `
		SELECT name, position, ideology, url
		FROM party_profiles
		WHERE link = ?
	`

	var name string
	var position, ideology, url sql.NullString

	err := s.db.QueryRow(query, link).Scan(&name, &position, &ideology, &url)
	if err == sql.ErrNoRows {
		return pollgrid.PartyProfile{}, false, nil
	}
	if err != nil {
		return pollgrid.PartyProfile{}, false, fmt.Errorf("failed to query profile: %w", err)
	}

	return pollgrid.PartyProfile{
		Name:     name,
		Position: position.String,
		Ideology: ideology.String,
		URL:      url.String,
	}, true, nil
}

// SaveProfile stores or replaces the profile for a party link.
func (s *Store) SaveProfile(link string, p pollgrid.PartyProfile) error {
	query := `
		INSERT OR REPLACE INTO party_profiles (link, name, position, ideology, url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if _, err := s.db.Exec(query, link, p.Name, p.Position, p.Ideology, p.URL, formatTime(&now)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// StartRun records the beginning of an update pass and returns its id.
func (s *Store) StartRun(country string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	query := `
		INSERT INTO runs (run_id, country, started_at)
		VALUES (?, ?, ?)
	`

	if _, err := s.db.Exec(query, id.String(), country, formatTime(&now)); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run with its tallies.
func (s *Store) FinishRun(id uuid.UUID, sources, observations, skipped int) error {
	now := time.Now()

	query := `
		UPDATE runs
		SET finished_at = ?, sources = ?, observations = ?, skipped = ?
		WHERE run_id = ?
	`

	result, err := s.db.Exec(query, formatTime(&now), sources, observations, skipped, id.String())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}

	return nil
}

// RecentRuns returns the latest runs, newest first. A limit of 0 means
// no limit.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, country, started_at, finished_at, sources, observations, skipped
		FROM runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var idStr, country, startedStr string
		var finishedStr sql.NullString
		var sources, observations, skipped int

		if err := rows.Scan(&idStr, &country, &startedStr, &finishedStr, &sources, &observations, &skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run, err := scanRun(idStr, country, startedStr, finishedStr, sources, observations, skipped)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, nil
}

// scanRun parses SQL row data into a Run struct.
func scanRun(idStr, country, startedStr string, finishedStr sql.NullString, sources, observations, skipped int) (*Run, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}

	run := &Run{
		RunID:        id,
		Country:      country,
		StartedAt:    parseTime(startedStr),
		Sources:      sources,
		Observations: observations,
		Skipped:      skipped,
	}

	if finishedStr.Valid {
		t := parseTime(finishedStr.String)
		run.FinishedAt = &t
	}

	return run, nil
}

// sortableTimeFormat keeps a fixed-width fraction so stored strings
// sort chronologically. RFC3339Nano drops trailing zeros, which breaks
// lexicographic ordering.
const sortableTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).Format(sortableTimeFormat)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
