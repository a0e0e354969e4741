// Package sqlite stores notes in a single SQLite database file using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/joelazar/fancy-forms/pkg/core"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Repository implements core.Repository on top of SQLite.
type Repository struct {
	Path string
	db   *sql.DB
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path      string `json:"path"`
	OpenConns int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
}

// NewRepository opens the database at path. The schema is created by Initialize.
func NewRepository(path string) (*Repository, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	return &Repository{Path: path, db: db}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Initialize creates the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at, id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

// Create inserts a note. Ids are unique.
func (r *Repository) Create(ctx context.Context, n core.Note) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, body, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.Title, n.Body, n.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("note %s already exists", n.ID)
		}
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// Get fetches a single note.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, body, created_at FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Note{}, core.ErrNotFound
	}
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// List returns all notes in creation order.
func (r *Repository) List(ctx context.Context) ([]core.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, body, created_at FROM notes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Delete removes a note.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (core.Note, error) {
	var n core.Note
	var created int64
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &created); err != nil {
		return core.Note{}, err
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	return n, nil
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	stats := r.db.Stats()
	return RepositoryState{
		Path:      r.Path,
		OpenConns: stats.OpenConnections,
		InUse:     stats.InUse,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite"
}

var _ core.Repository = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
