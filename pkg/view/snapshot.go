package view

import (
	"maps"
	"slices"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Control labels.
const (
	LabelCreate   = "Create"
	LabelCreating = "Creating"
	LabelDelete   = "Delete"
	LabelRetry    = "Retry PLS"
)

// FocusTitle marks the title input as the focused field.
const FocusTitle = "title"

// Form is the state of the create form.
type Form struct {
	Title string
	Body  string
	Focus string
}

// Snapshot is the displayed state at one point in time.
// Values returned by Reduce never share mutable state with their inputs.
type Snapshot struct {
	// Notes is the collection from the last full load, in display order.
	Notes []core.Note
	// Deleting holds ids whose delete is in flight. They are hidden.
	Deleting map[string]bool
	// Failed holds ids whose last delete failed. They show a retry control.
	Failed map[string]bool
	// Deleted holds ids confirmed deleted that a load may still list, when
	// the load read the store before the delete. They stay hidden until a
	// load comes back without them.
	Deleted map[string]bool
	// Creating is true while the single outstanding create is in flight.
	Creating bool
	Form     Form
	// Message is the last inline error, empty when the last mutation succeeded.
	Message string
}

// Card is one rendered note.
type Card struct {
	Note        core.Note
	Failed      bool
	DeleteLabel string
}

// NewSnapshot returns the state after a full load of notes.
func NewSnapshot(notes []core.Note) Snapshot {
	return Reduce(Snapshot{}, Loaded{Notes: notes})
}

// Visible returns the notes to render, excluding optimistically removed ones.
func (s Snapshot) Visible() []Card {
	cards := make([]Card, 0, len(s.Notes))
	for _, n := range s.Notes {
		if s.Deleting[n.ID] || s.Deleted[n.ID] {
			continue
		}
		label := LabelDelete
		if s.Failed[n.ID] {
			label = LabelRetry
		}
		cards = append(cards, Card{Note: n, Failed: s.Failed[n.ID], DeleteLabel: label})
	}
	return cards
}

// CreateLabel is the text of the create control.
func (s Snapshot) CreateLabel() string {
	if s.Creating {
		return LabelCreating
	}
	return LabelCreate
}

// CreateDisabled reports whether the create control accepts submissions.
func (s Snapshot) CreateDisabled() bool { return s.Creating }

// InFlight returns the ids whose delete has not settled yet, sorted.
func (s Snapshot) InFlight() []string {
	return slices.Sorted(maps.Keys(s.Deleting))
}

func (s Snapshot) clone() Snapshot {
	next := s
	next.Notes = slices.Clone(s.Notes)
	next.Deleting = cloneSet(s.Deleting)
	next.Failed = cloneSet(s.Failed)
	next.Deleted = cloneSet(s.Deleted)
	return next
}

func cloneSet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = true
		}
	}
	return out
}
