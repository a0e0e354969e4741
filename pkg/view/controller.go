package view

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joelazar/fancy-forms/pkg/core"
)

var (
	// ErrNotConfirmed is returned when the user declines a delete.
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrCreateInFlight is returned when a create is submitted while another is outstanding.
	ErrCreateInFlight = errors.New("a create is already in flight")
	// ErrDeleteInFlight is returned when a note's delete is submitted twice.
	ErrDeleteInFlight = errors.New("delete already in flight")
)

// Remote is the server side of the notes page.
type Remote interface {
	List(ctx context.Context) ([]core.Note, error)
	Create(ctx context.Context, title, body string) (core.Note, error)
	Delete(ctx context.Context, id string) (core.Note, error)
}

// Confirmer gates delete submissions.
type Confirmer interface {
	Confirm(n core.Note) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(n core.Note) bool

func (f ConfirmFunc) Confirm(n core.Note) bool { return f(n) }

// AlwaysConfirm approves every delete.
var AlwaysConfirm Confirmer = ConfirmFunc(func(core.Note) bool { return true })

// Controller owns the displayed snapshot and issues mutations against a Remote.
// It is safe for concurrent use. Each note's delete is tracked independently.
type Controller struct {
	remote    Remote
	confirmer Confirmer

	mu        sync.Mutex
	snap      Snapshot
	listeners []func(Snapshot)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithConfirmer sets the delete confirmation prompt. Defaults to AlwaysConfirm.
func WithConfirmer(c Confirmer) ControllerOption {
	return func(ctl *Controller) { ctl.confirmer = c }
}

// NewController creates a Controller with an empty snapshot.
func NewController(remote Remote, opts ...ControllerOption) *Controller {
	c := &Controller{
		remote:    remote,
		confirmer: AlwaysConfirm,
		snap:      NewSnapshot(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// OnChange registers fn to be called with every new snapshot.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Dispatch applies ev and notifies listeners.
func (c *Controller) Dispatch(ev Event) Snapshot {
	next, _ := c.transition(nil, ev)
	return next
}

// transition applies ev if guard accepts the current snapshot. The check and
// the update happen under the same lock.
func (c *Controller) transition(guard func(Snapshot) error, ev Event) (Snapshot, error) {
	c.mu.Lock()
	if guard != nil {
		if err := guard(c.snap); err != nil {
			c.mu.Unlock()
			return Snapshot{}, err
		}
	}
	c.snap = Reduce(c.snap, ev)
	next := c.snap.clone()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}

// Reload performs a full load from the remote.
func (c *Controller) Reload(ctx context.Context) error {
	notes, err := c.remote.List(ctx)
	if err != nil {
		return err
	}
	c.Dispatch(Loaded{Notes: notes})
	return nil
}

// Create submits a new note. Only one create may be outstanding.
func (c *Controller) Create(ctx context.Context, title, body string) (core.Note, error) {
	_, err := c.transition(func(s Snapshot) error {
		if s.Creating {
			return ErrCreateInFlight
		}
		return nil
	}, CreateSubmitted{Title: title, Body: body})
	if err != nil {
		return core.Note{}, err
	}

	n, err := c.remote.Create(ctx, title, body)
	if err != nil {
		c.Dispatch(CreateSettled{Error: err.Error()})
		return core.Note{}, err
	}
	c.Dispatch(CreateSettled{Note: &n})
	return n, nil
}

// Delete asks for confirmation, hides the note and submits its delete.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if !c.confirm(id) {
		return ErrNotConfirmed
	}
	return c.submitDelete(ctx, id)
}

// DeleteAll confirms each note in order, then submits the confirmed deletes
// concurrently. A failing delete does not cancel the others. The result maps
// every id to its outcome (nil on success).
func (c *Controller) DeleteAll(ctx context.Context, ids ...string) map[string]error {
	results := make(map[string]error, len(ids))
	var confirmed []string
	for _, id := range ids {
		if _, dup := results[id]; dup {
			continue
		}
		if !c.confirm(id) {
			results[id] = ErrNotConfirmed
			continue
		}
		results[id] = nil
		confirmed = append(confirmed, id)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, id := range confirmed {
		g.Go(func() error {
			err := c.submitDelete(ctx, id)
			mu.Lock()
			results[id] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Controller) confirm(id string) bool {
	n := core.Note{ID: id}
	c.mu.Lock()
	for _, candidate := range c.snap.Notes {
		if candidate.ID == id {
			n = candidate
			break
		}
	}
	c.mu.Unlock()
	return c.confirmer.Confirm(n)
}

func (c *Controller) submitDelete(ctx context.Context, id string) error {
	_, err := c.transition(func(s Snapshot) error {
		if s.Deleting[id] {
			return ErrDeleteInFlight
		}
		return nil
	}, DeleteSubmitted{ID: id, Confirmed: true})
	if err != nil {
		return err
	}

	_, err = c.remote.Delete(ctx, id)
	switch {
	case err == nil, errors.Is(err, core.ErrNotFound):
		c.Dispatch(DeleteSucceeded{ID: id})
		return err
	default:
		c.Dispatch(DeleteFailed{ID: id, Error: err.Error()})
		return err
	}
}
