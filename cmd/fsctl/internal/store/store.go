package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/livefir/formset"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state
var gooseMu sync.Mutex

// Record is one stored submission
type Record struct {
	ID         int64               `json:"id"`
	Prefix     string              `json:"prefix"`
	Total      int                 `json:"total_forms"`
	Initial    int                 `json:"initial_forms"`
	Active     int                 `json:"active_forms"`
	Deleted    int                 `json:"deleted_forms"`
	Submission *formset.Submission `json:"submission"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Store persists accepted formset submissions in SQLite
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies all
// pending migrations
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.Up(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file location
func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fn func(db *sql.DB, dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn(s.db, migrationsDir)
}

// Up runs all pending migrations
func (s *Store) Up() error {
	if err := s.migrate(func(db *sql.DB, dir string) error { return goose.Up(db, dir) }); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration
func (s *Store) Down() error {
	if err := s.migrate(func(db *sql.DB, dir string) error { return goose.Down(db, dir) }); err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (s *Store) Version() (int64, error) {
	var version int64
	err := s.migrate(func(db *sql.DB, _ string) error {
		v, err := goose.GetDBVersion(db)
		version = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Save stores one submission and returns its id
func (s *Store) Save(ctx context.Context, sub *formset.Submission) (int64, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return 0, fmt.Errorf("failed to encode submission: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (prefix, total_forms, initial_forms, active_forms, deleted_forms, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.Prefix, sub.Management.Total, sub.Management.Initial,
		len(sub.Active()), len(sub.Deleted()), string(payload), time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to save submission %s: %w", sub.Prefix, err)
	}
	return res.LastInsertId()
}

// List returns stored submissions, newest first. An empty prefix lists
// every formset.
func (s *Store) List(ctx context.Context, prefix string) ([]Record, error) {
	query := `SELECT id, prefix, total_forms, initial_forms, active_forms, deleted_forms, payload, created_at
		FROM submissions`
	var args []interface{}
	if prefix != "" {
		query += ` WHERE prefix = ?`
		args = append(args, prefix)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			payload string
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Prefix, &r.Total, &r.Initial, &r.Active, &r.Deleted, &payload, &created); err != nil {
			return nil, fmt.Errorf("failed to read submission: %w", err)
		}
		r.Submission = &formset.Submission{}
		if err := json.Unmarshal([]byte(payload), r.Submission); err != nil {
			return nil, fmt.Errorf("failed to decode submission %d: %w", r.ID, err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
