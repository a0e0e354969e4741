// Package memory provides an in-process note store, used for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Repository implements core.Repository over a map.
type Repository struct {
	mu    sync.RWMutex
	notes map[string]core.Note
}

// NewRepository creates an empty in-memory repository.
func NewRepository(seed ...core.Note) *Repository {
	r := &Repository{notes: make(map[string]core.Note, len(seed))}
	for _, n := range seed {
		r.notes[n.ID] = n
	}
	return r
}

func (r *Repository) Initialize(ctx context.Context) error { return nil }

func (r *Repository) Create(ctx context.Context, n core.Note) error {
	if n.ID == "" {
		return fmt.Errorf("note has no ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[n.ID]; exists {
		return fmt.Errorf("note %s already exists", n.ID)
	}
	r.notes[n.ID] = n
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return core.Note{}, core.ErrNotFound
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context) ([]core.Note, error) {
	r.mu.RLock()
	notes := make([]core.Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, n)
	}
	r.mu.RUnlock()

	core.SortNotes(notes)
	return notes, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

// Len returns the number of stored notes.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return map[string]any{"notes": r.Len()}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string { return "memory" }

var _ core.Repository = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
