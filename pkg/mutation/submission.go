package mutation

import (
	"net/url"
	"strings"
)

// Intent is the client-declared purpose of a submitted mutation.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentDelete Intent = "delete"
)

// Discriminator fields. Forms in the wild use either name; IntentField wins
// when both are present.
const (
	IntentField = "_intent"
	ActionField = "_action"
)

// Form field names.
const (
	FieldTitle = "title"
	FieldBody  = "body"
	FieldID    = "id"
)

// Submission is a decoded form post.
type Submission struct {
	Intent Intent
	Title  string
	Body   string
	ID     string
}

// ParseSubmission reads a submission from form values.
func ParseSubmission(form url.Values) Submission {
	intent := form.Get(IntentField)
	if intent == "" {
		intent = form.Get(ActionField)
	}
	return Submission{
		Intent: Intent(strings.TrimSpace(intent)),
		Title:  form.Get(FieldTitle),
		Body:   form.Get(FieldBody),
		ID:     form.Get(FieldID),
	}
}

// Values encodes the submission as form values using the _intent discriminator.
func (s Submission) Values() url.Values {
	v := url.Values{}
	v.Set(IntentField, string(s.Intent))
	switch s.Intent {
	case IntentCreate:
		v.Set(FieldTitle, s.Title)
		v.Set(FieldBody, s.Body)
	case IntentDelete:
		v.Set(FieldID, s.ID)
	}
	return v
}
