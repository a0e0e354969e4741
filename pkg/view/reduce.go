package view

import (
	"slices"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Event is a mutation lifecycle event applied by Reduce.
type Event interface {
	apply(s Snapshot) Snapshot
}

// Loaded replaces the collection with a full load.
type Loaded struct {
	Notes []core.Note
}

// DeleteSubmitted is sent when the user submits a delete. Unconfirmed
// submissions are dropped: no request is sent and nothing changes.
type DeleteSubmitted struct {
	ID        string
	Confirmed bool
}

// DeleteFailed is the server reporting that the delete of ID failed.
type DeleteFailed struct {
	ID    string
	Error string
}

// DeleteSucceeded is the server confirming the delete of ID.
type DeleteSucceeded struct {
	ID string
}

// CreateSubmitted is sent when the create form is submitted.
type CreateSubmitted struct {
	Title string
	Body  string
}

// CreateSettled is the server answer to a create: Note on success, Error otherwise.
type CreateSettled struct {
	Note  *core.Note
	Error string
}

// Reduce returns the snapshot that follows prev after ev. prev is not modified.
func Reduce(prev Snapshot, ev Event) Snapshot {
	if ev == nil {
		return prev.clone()
	}
	return ev.apply(prev.clone())
}

func (e Loaded) apply(s Snapshot) Snapshot {
	s.Notes = slices.Clone(e.Notes)
	present := make(map[string]bool, len(e.Notes))
	for _, n := range e.Notes {
		present[n.ID] = true
	}
	for id := range s.Deleting {
		if !present[id] {
			delete(s.Deleting, id)
		}
	}
	for id := range s.Failed {
		if !present[id] {
			delete(s.Failed, id)
		}
	}
	for id := range s.Deleted {
		if !present[id] {
			delete(s.Deleted, id)
		}
	}
	return s
}

func (e DeleteSubmitted) apply(s Snapshot) Snapshot {
	if !e.Confirmed || e.ID == "" {
		return s
	}
	s.Deleting[e.ID] = true
	delete(s.Failed, e.ID)
	s.Message = ""
	return s
}

func (e DeleteFailed) apply(s Snapshot) Snapshot {
	delete(s.Deleting, e.ID)
	if e.ID != "" {
		s.Failed[e.ID] = true
	}
	s.Message = e.Error
	return s
}

func (e DeleteSucceeded) apply(s Snapshot) Snapshot {
	delete(s.Deleting, e.ID)
	delete(s.Failed, e.ID)
	if e.ID != "" {
		s.Deleted[e.ID] = true
	}
	s.Notes = slices.DeleteFunc(s.Notes, func(n core.Note) bool { return n.ID == e.ID })
	return s
}

func (e CreateSubmitted) apply(s Snapshot) Snapshot {
	s.Creating = true
	s.Form = Form{Title: e.Title, Body: e.Body}
	s.Message = ""
	return s
}

func (e CreateSettled) apply(s Snapshot) Snapshot {
	s.Creating = false
	s.Form = Form{Focus: FocusTitle}
	s.Message = e.Error
	if e.Note != nil {
		s.Notes = append(s.Notes, *e.Note)
	}
	return s
}
