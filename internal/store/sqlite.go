// Package store persists completed typing tests in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultBusyTimeout is how long a writer waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// Store wraps a SQLite database of typing results.
type Store struct {
	db   *sql.DB
	path string
}

// Option configures Open.
type Option func(*options)

type options struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets the SQLite busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.busyTimeout = d
		}
	}
}

// Open opens or creates the database at path and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		path, o.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time; tutor and CLI never need more
	db.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InsertResult stores r and sets r.ID.
func (s *Store) InsertResult(r *Result) (int64, error) {
	if r == nil {
		return 0, errors.New("nil result")
	}
	if r.Layout == "" {
		return 0, errors.New("result layout is empty")
	}
	source := r.Source
	if source == "" {
		source = SourceTutor
	}

	res, err := s.db.Exec(`
		INSERT INTO typing_results (
			started_at, elapsed_ms, layout, source,
			total_chars, mirror_chars, errors, wpm, accuracy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UnixNano(), r.Elapsed.Milliseconds(), r.Layout, source,
		r.TotalChars, r.MirrorChars, r.Errors, r.WPM, r.Accuracy,
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	r.Source = source
	return id, nil
}

const resultColumns = `id, started_at, elapsed_ms, layout, source,
	total_chars, mirror_chars, errors, wpm, accuracy`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*Result, error) {
	var r Result
	var startedAt, elapsedMs int64
	err := row.Scan(
		&r.ID, &startedAt, &elapsedMs, &r.Layout, &r.Source,
		&r.TotalChars, &r.MirrorChars, &r.Errors, &r.WPM, &r.Accuracy,
	)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, startedAt)
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &r, nil
}

// GetResult retrieves a result by ID.
func (s *Store) GetResult(id int64) (*Result, error) {
	row := s.db.QueryRow(`SELECT `+resultColumns+` FROM typing_results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result %d: %w", id, err)
	}
	return r, nil
}

// ListResults returns up to limit results, newest first. A limit <= 0
// returns everything.
func (s *Store) ListResults(limit int) ([]Result, error) {
	query := `SELECT ` + resultColumns + ` FROM typing_results
		ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryResults(query, args...)
}

// ListSince returns results started at or after t, oldest first.
func (s *Store) ListSince(t time.Time) ([]Result, error) {
	return s.queryResults(`SELECT `+resultColumns+` FROM typing_results
		WHERE started_at >= ? ORDER BY started_at ASC, id ASC`, t.UnixNano())
}

func (s *Store) queryResults(query string, args ...any) ([]Result, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// Summary aggregates every stored result.
func (s *Store) Summary() (*Summary, error) {
	sum := &Summary{ByLayout: make(map[string]int)}

	var first, last sql.NullInt64
	var best, avgWPM, avgAcc sql.NullFloat64
	var chars sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*), SUM(total_chars), MAX(wpm), AVG(wpm), AVG(accuracy),
		       MIN(started_at), MAX(started_at)
		FROM typing_results`,
	).Scan(&sum.Count, &chars, &best, &avgWPM, &avgAcc, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	if sum.Count == 0 {
		return sum, nil
	}

	sum.TotalChars = int(chars.Int64)
	sum.BestWPM = best.Float64
	sum.AverageWPM = avgWPM.Float64
	sum.AverageAcc = avgAcc.Float64
	sum.FirstResult = time.Unix(0, first.Int64)
	sum.LastResult = time.Unix(0, last.Int64)

	rows, err := s.db.Query(`SELECT layout, COUNT(*) FROM typing_results GROUP BY layout`)
	if err != nil {
		return nil, fmt.Errorf("count by layout: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan layout count: %w", err)
		}
		sum.ByLayout[name] = n
	}
	return sum, rows.Err()
}

// DeleteBefore removes results started before t and returns how many were
// deleted.
func (s *Store) DeleteBefore(t time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM typing_results WHERE started_at < ?`, t.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	return res.RowsAffected()
}
