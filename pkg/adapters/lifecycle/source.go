// Package lifecycle exposes note events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// SourceOption configures a note source.
type SourceOption func(*NoteSource)

// Only restricts the source to the given event types. No types means all.
func Only(types ...core.EventType) SourceOption {
	return func(s *NoteSource) {
		s.types = append(s.types, types...)
	}
}

// NoteSource adapts a core.Event stream to lifecycle.Source.
type NoteSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	types  []core.EventType

	forwarded atomic.Int64
	skipped   atomic.Int64
	running   atomic.Bool
}

// SourceState is the introspection view of a NoteSource.
type SourceState struct {
	Running   bool             `json:"running"`
	Types     []core.EventType `json:"types,omitempty"`
	Forwarded int64            `json:"forwarded"`
	Skipped   int64            `json:"skipped"`
}

// NewSource wraps events. The source closes its channel when events closes
// or the start context ends.
func NewSource(events <-chan core.Event, opts ...SourceOption) *NoteSource {
	s := &NoteSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NoteSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *NoteSource) Start(ctx context.Context) error {
	s.running.Store(true)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer s.running.Store(false)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				e = ev
			}
			if !s.wants(e.Type) {
				s.skipped.Add(1)
				continue
			}
			select {
			case s.out <- e:
				s.forwarded.Add(1)
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}

func (s *NoteSource) wants(t core.EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// State implements introspection.Introspectable.
func (s *NoteSource) State() any {
	return SourceState{
		Running:   s.running.Load(),
		Types:     slices.Clone(s.types),
		Forwarded: s.forwarded.Load(),
		Skipped:   s.skipped.Load(),
	}
}

// ComponentType implements introspection.Component.
func (s *NoteSource) ComponentType() string {
	return "note-source"
}

var (
	_ lifecycle.Source             = (*NoteSource)(nil)
	_ introspection.Introspectable = (*NoteSource)(nil)
	_ introspection.Component      = (*NoteSource)(nil)
)
