package core

import "context"

// Repository defines the contract for storing and retrieving notes.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (Filesystem, SQLite, Redis, memory).
type Repository interface {
	// Create persists a new note. The note already carries its ID and timestamp.
	Create(ctx context.Context, n Note) error

	// Get retrieves a note by its ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (Note, error)

	// List returns all notes ordered by creation time.
	List(ctx context.Context) ([]Note, error)

	// Delete removes a note by its ID. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Initialize ensures the underlying storage is ready (e.g., create directories, git init, schema migration).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for repositories that can observe changes
// made outside of this process.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Versioned defines an interface for repositories that record every change.
// History returns one line per change, newest first, or ErrNoHistory.
type Versioned interface {
	History(ctx context.Context) ([]string, error)
}
