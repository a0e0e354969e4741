package web

import (
	"net/http"

	"github.com/aretw0/introspection"
	"github.com/gin-gonic/gin"

	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/mutation"
	"github.com/joelazar/fancy-forms/pkg/view"
)

// NotesPath is the single resource route.
const NotesPath = "/notes"

// page is the data passed to the notes template.
type page struct {
	Snapshot view.Snapshot
	Cards    []view.Card
}

func newPage(s view.Snapshot) page {
	return page{Snapshot: s, Cards: s.Visible()}
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func (s *Server) listNotes(c *gin.Context) {
	notes, err := s.notes.ListNotes(c.Request.Context())
	if wantsJSON(c) {
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if notes == nil {
			notes = []core.Note{}
		}
		c.JSON(http.StatusOK, notes)
		return
	}

	snap := view.NewSnapshot(notes)
	snap.Form.Focus = view.FocusTitle
	if err != nil {
		snap.Message = err.Error()
	}
	c.HTML(http.StatusOK, "notes.html", newPage(snap))
}

func (s *Server) submit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.respond(c, mutation.Submission{}, mutation.Result{Error: "Invalid form", Kind: mutation.KindValidation})
		return
	}
	sub := mutation.ParseSubmission(c.Request.PostForm)
	res := s.mutator.Handle(c.Request.Context(), sub)
	s.respond(c, sub, res)
}

func (s *Server) respond(c *gin.Context, sub mutation.Submission, res mutation.Result) {
	if wantsJSON(c) {
		c.JSON(statusFor(res), res)
		return
	}

	// The page is rebuilt the way a browser sees it: the mutation settles,
	// then the collection is reloaded.
	snap := view.Snapshot{}
	for _, ev := range settle(sub, res) {
		snap = view.Reduce(snap, ev)
	}
	notes, err := s.notes.ListNotes(c.Request.Context())
	if err != nil {
		snap.Message = err.Error()
	}
	snap = view.Reduce(snap, view.Loaded{Notes: notes})
	c.HTML(http.StatusOK, "notes.html", newPage(snap))
}

// rejectRateLimited answers a throttled mutation. JSON clients get 429; the
// page is rendered with the throttled note marked for retry.
func (s *Server) rejectRateLimited(c *gin.Context) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage})
		return
	}
	c.Abort()

	var sub mutation.Submission
	if err := c.Request.ParseForm(); err == nil {
		sub = mutation.ParseSubmission(c.Request.PostForm)
	}
	s.respond(c, sub, mutation.Result{
		Intent: sub.Intent,
		ID:     sub.ID,
		Error:  rateLimitMessage,
		Kind:   mutation.KindTransient,
	})
}

// settle maps a submission and its result onto view events.
func settle(sub mutation.Submission, res mutation.Result) []view.Event {
	switch sub.Intent {
	case mutation.IntentCreate:
		return []view.Event{
			view.CreateSubmitted{Title: sub.Title, Body: sub.Body},
			view.CreateSettled{Note: res.Note, Error: res.Error},
		}
	case mutation.IntentDelete:
		if sub.ID == "" {
			return []view.Event{view.DeleteFailed{Error: res.Error}}
		}
		events := []view.Event{view.DeleteSubmitted{ID: sub.ID, Confirmed: true}}
		if res.OK() || res.Kind == mutation.KindNotFound {
			return append(events, view.DeleteSucceeded{ID: sub.ID})
		}
		return append(events, view.DeleteFailed{ID: sub.ID, Error: res.Error})
	default:
		return []view.Event{view.DeleteFailed{Error: res.Error}}
	}
}

func statusFor(res mutation.Result) int {
	switch res.Kind {
	case mutation.KindNone:
		if res.Intent == mutation.IntentCreate {
			return http.StatusCreated
		}
		return http.StatusOK
	case mutation.KindValidation:
		return http.StatusBadRequest
	case mutation.KindTransient:
		return http.StatusServiceUnavailable
	case mutation.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) state(c *gin.Context) {
	out := make(map[string]any, len(s.components)+1)
	for name, comp := range s.components {
		entry := gin.H{}
		if typed, ok := comp.(introspection.Component); ok {
			entry["type"] = typed.ComponentType()
		}
		if in, ok := comp.(introspection.Introspectable); ok {
			entry["state"] = in.State()
		}
		out[name] = entry
	}
	if s.limiter != nil {
		out["rate_limiter"] = gin.H{"state": s.limiter.State()}
	}
	c.JSON(http.StatusOK, out)
}
