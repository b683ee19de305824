package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id    INTEGER PRIMARY KEY,
	document   TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps one JSON document per user in a SQLite table. It is the
// document-engine backend and deliberately has no Delete.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database file at path, creating its directory.
// The pool is pinned to one connection so read-merge-write cycles serialize.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewSQLiteStore ensures the profiles table exists and returns the store.
func NewSQLiteStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	o := buildOptions(opts)
	return &SQLiteStore{db: db, now: o.now}, nil
}

// Get returns the profile for userID.
func (s *SQLiteStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	return getDocument(ctx, s.db, userID)
}

// Upsert merges f into the stored document, creating it when absent.
func (s *SQLiteStore) Upsert(ctx context.Context, userID int64, f Fields) (*Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tx.Rollback()

	existing, err := getDocument(ctx, tx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p := merge(existing, userID, f, s.now())
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		userID, string(doc), p.UpdatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Ping checks the database answers.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryRower, userID int64) (*Profile, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT document FROM profiles WHERE user_id = ?`, userID).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode profile %d: %w", userID, err)
	}
	return &p, nil
}
