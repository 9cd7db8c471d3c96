package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hylla/rota/internal/app"
	"github.com/hylla/rota/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName is the registered modernc driver.
const driverName = "sqlite"

// memorySeq names in-memory databases so each OpenInMemory call is isolated.
var memorySeq atomic.Int64

// Repository stores schedules, commits, and assignment history.
type Repository struct {
	db *sql.DB
}

// Open opens or creates a database file and runs migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:rota-mem-%d?mode=memory&cache=shared", memorySeq.Add(1))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

// newRepository migrates db and wraps it.
func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schedules (
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			assignments_json TEXT NOT NULL DEFAULT '{}',
			updated_at TEXT NOT NULL,
			PRIMARY KEY(year, month)
		);`,
		`CREATE TABLE IF NOT EXISTS commits (
			id TEXT PRIMARY KEY,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			assignments_json TEXT NOT NULL DEFAULT '{}',
			committed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commits_month ON commits(year, month, committed_at);`,
		`CREATE TABLE IF NOT EXISTS assignment_history (
			date_task TEXT PRIMARY KEY,
			person TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// GetSchedule returns the working schedule for a month.
func (r *Repository) GetSchedule(ctx context.Context, year int, month time.Month) (domain.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT year, month, assignments_json, updated_at
		FROM schedules
		WHERE year = ? AND month = ?
	`, year, int(month))
	var (
		s          domain.Schedule
		monthRaw   int
		assignRaw  string
		updatedRaw string
	)
	if err := row.Scan(&s.Year, &monthRaw, &assignRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Schedule{}, app.ErrNotFound
		}
		return domain.Schedule{}, err
	}
	assignments, err := decodeAssignments(assignRaw)
	if err != nil {
		return domain.Schedule{}, err
	}
	s.Month = time.Month(monthRaw)
	s.Assignments = assignments
	s.UpdatedAt = parseTS(updatedRaw)
	return s, nil
}

// SaveSchedule upserts the working schedule for a month.
func (r *Repository) SaveSchedule(ctx context.Context, s domain.Schedule) error {
	assignJSON, err := encodeAssignments(s.Assignments)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedules(year, month, assignments_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET
			assignments_json = excluded.assignments_json,
			updated_at = excluded.updated_at
	`, s.Year, int(s.Month), assignJSON, ts(s.UpdatedAt))
	return err
}

// GetLastCommit returns the most recent commit for a month.
func (r *Repository) GetLastCommit(ctx context.Context, year int, month time.Month) (domain.CommitRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, year, month, assignments_json, committed_at
		FROM commits
		WHERE year = ? AND month = ?
		ORDER BY committed_at DESC, rowid DESC
		LIMIT 1
	`, year, int(month))
	var (
		c            domain.CommitRecord
		monthRaw     int
		assignRaw    string
		committedRaw string
	)
	if err := row.Scan(&c.ID, &c.Year, &monthRaw, &assignRaw, &committedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CommitRecord{}, app.ErrNotFound
		}
		return domain.CommitRecord{}, err
	}
	assignments, err := decodeAssignments(assignRaw)
	if err != nil {
		return domain.CommitRecord{}, err
	}
	c.Month = time.Month(monthRaw)
	c.Assignments = assignments
	c.CommittedAt = parseTS(committedRaw)
	return c, nil
}

// SaveCommit stores a commit record in one transaction: the replaced keys
// leave the history and the record's assignments enter it.
func (r *Repository) SaveCommit(ctx context.Context, c domain.CommitRecord, replaced []string) (err error) {
	if strings.TrimSpace(c.ID) == "" {
		return domain.ErrInvalidID
	}
	assignJSON, err := encodeAssignments(c.Assignments)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = removeHistory(ctx, tx, replaced); err != nil {
		return err
	}
	if err = recordHistory(ctx, tx, historyEntries(c.Assignments, c.CommittedAt)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO commits(id, year, month, assignments_json, committed_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Year, int(c.Month), assignJSON, ts(c.CommittedAt)); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// RecordHistory upserts history entries.
func (r *Repository) RecordHistory(ctx context.Context, entries []domain.HistoryEntry) error {
	return recordHistory(ctx, r.db, entries)
}

// RemoveHistory deletes history entries by date-task key. Unknown keys are ignored.
func (r *Repository) RemoveHistory(ctx context.Context, keys []string) error {
	return removeHistory(ctx, r.db, keys)
}

// ListHistory returns every history entry ordered by key.
func (r *Repository) ListHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_task, person, recorded_at
		FROM assignment_history
		ORDER BY date_task ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry       domain.HistoryEntry
			recordedRaw string
		)
		if err := rows.Scan(&entry.DateTask, &entry.Person, &recordedRaw); err != nil {
			return nil, err
		}
		entry.RecordedAt = parseTS(recordedRaw)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// execerContext is satisfied by *sql.DB and *sql.Tx.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// recordHistory upserts entries, skipping blank people.
func recordHistory(ctx context.Context, execer execerContext, entries []domain.HistoryEntry) error {
	for _, entry := range entries {
		key, person := strings.TrimSpace(entry.DateTask), strings.TrimSpace(entry.Person)
		if key == "" || person == "" {
			continue
		}
		if _, err := execer.ExecContext(ctx, `
			INSERT INTO assignment_history(date_task, person, recorded_at)
			VALUES (?, ?, ?)
			ON CONFLICT(date_task) DO UPDATE SET
				person = excluded.person,
				recorded_at = excluded.recorded_at
		`, key, person, ts(entry.RecordedAt)); err != nil {
			return fmt.Errorf("record history %q: %w", key, err)
		}
	}
	return nil
}

// removeHistory deletes entries by key.
func removeHistory(ctx context.Context, execer execerContext, keys []string) error {
	for _, key := range keys {
		if _, err := execer.ExecContext(ctx, `DELETE FROM assignment_history WHERE date_task = ?`, key); err != nil {
			return fmt.Errorf("remove history %q: %w", key, err)
		}
	}
	return nil
}

// historyEntries converts assignments into history rows.
func historyEntries(assignments domain.Assignments, at time.Time) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(assignments))
	for _, key := range assignments.Keys() {
		out = append(out, domain.HistoryEntry{DateTask: key, Person: assignments[key], RecordedAt: at})
	}
	return out
}

// encodeAssignments serializes assignments, writing {} for nil.
func encodeAssignments(a domain.Assignments) (string, error) {
	if a == nil {
		a = domain.Assignments{}
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode assignments: %w", err)
	}
	return string(raw), nil
}

// decodeAssignments parses a stored assignments_json column.
func decodeAssignments(raw string) (domain.Assignments, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	out := domain.Assignments{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode assignments_json: %w", err)
	}
	return out, nil
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a stored timestamp, returning zero on malformed input.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
