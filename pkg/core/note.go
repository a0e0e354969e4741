package core

import "time"

// Note is the central entity of the domain.
// It is immutable once created: notes are only created and deleted.
// It is agnostic to storage format (Markdown, SQL, Redis hashes).
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteInput carries the user-supplied fields of a new note.
type NoteInput struct {
	Title string `validate:"required"`
	Body  string `validate:"required"`
}

// SortNotes orders notes by creation time, oldest first, breaking ties by ID.
// Every adapter returns lists in this order.
func SortNotes(notes []Note) {
	sortNotes(notes)
}
