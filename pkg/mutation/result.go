package mutation

import (
	"encoding/json"
	"errors"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindTransient  ErrorKind = "transient"
	KindNotFound   ErrorKind = "not_found"
	KindInternal   ErrorKind = "internal"
)

// Result is the outcome of a submission: the affected note, or an error message
// together with the id of the note it concerns (deletes only).
type Result struct {
	Intent Intent
	Note   *core.Note
	Error  string
	ID     string
	Kind   ErrorKind
}

// OK reports whether the mutation succeeded.
func (r Result) OK() bool { return r.Error == "" }

// Err converts a failed Result back into the core error taxonomy.
func (r Result) Err() error {
	switch r.Kind {
	case KindNone:
		return nil
	case KindValidation:
		return core.NewValidationError("", r.Error)
	case KindTransient:
		return &core.TransientError{ID: r.ID, Err: errors.New(r.Error)}
	case KindNotFound:
		return core.ErrNotFound
	default:
		return errors.New(r.Error)
	}
}

type errorBody struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

// MarshalJSON renders the affected record on success and {error, id?} otherwise.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(errorBody{Error: r.Error, ID: r.ID})
	}
	if r.Note == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Note)
}

func success(intent Intent, n core.Note) Result {
	return Result{Intent: intent, Note: &n}
}

func failure(intent Intent, id string, err error) Result {
	res := Result{Intent: intent, ID: id, Error: err.Error(), Kind: KindInternal}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		res.Kind = KindValidation
		res.Error = verr.Message
	case errors.Is(err, core.ErrTransient):
		res.Kind = KindTransient
	case errors.Is(err, core.ErrNotFound):
		res.Kind = KindNotFound
		res.Error = "Note not found"
	}
	return res
}
