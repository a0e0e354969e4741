package mutation

import (
	"context"
	"log/slog"
	"time"

	"github.com/joelazar/fancy-forms/pkg/chaos"
	"github.com/joelazar/fancy-forms/pkg/core"
)

// NoteService is the part of core.Service the handler depends on.
type NoteService interface {
	CreateNote(ctx context.Context, title, body string) (core.Note, error)
	DeleteNote(ctx context.Context, id string) (core.Note, error)
}

// Handler validates submissions and applies them to the note service.
type Handler struct {
	svc     NoteService
	failure chaos.FailureStrategy
	latency chaos.Latency
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithFailureStrategy decides which deletes fail. Defaults to a 50% coin flip.
func WithFailureStrategy(s chaos.FailureStrategy) Option {
	return func(h *Handler) { h.failure = s }
}

// WithLatency sets the simulated delete latency. Defaults to 2 seconds.
func WithLatency(l chaos.Latency) Option {
	return func(h *Handler) { h.latency = l }
}

// WithLogger sets the logger for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics records mutation outcomes.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a Handler over svc.
func NewHandler(svc NoteService, opts ...Option) *Handler {
	h := &Handler{
		svc:     svc,
		failure: chaos.Probability(chaos.DefaultFailureRate, uint64(time.Now().UnixNano())),
		latency: chaos.FixedDelay(chaos.DefaultDelay),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Handle applies a submission. It never fails: every outcome is a renderable Result.
func (h *Handler) Handle(ctx context.Context, sub Submission) Result {
	var res Result
	switch sub.Intent {
	case IntentCreate:
		res = h.create(ctx, sub)
	case IntentDelete:
		res = h.delete(ctx, sub)
	default:
		res = failure(sub.Intent, "", core.NewValidationError("_intent", "Unknown intent"))
	}

	h.metrics.observe(res)
	if res.OK() {
		h.logger.Info("mutation applied", "intent", sub.Intent, "id", res.Note.ID)
	} else {
		h.logger.Info("mutation rejected", "intent", sub.Intent, "id", res.ID, "kind", res.Kind, "error", res.Error)
	}
	return res
}

func (h *Handler) create(ctx context.Context, sub Submission) Result {
	n, err := h.svc.CreateNote(ctx, sub.Title, sub.Body)
	if err != nil {
		return failure(IntentCreate, "", err)
	}
	return success(IntentCreate, n)
}

func (h *Handler) delete(ctx context.Context, sub Submission) Result {
	if sub.ID == "" {
		return failure(IntentDelete, "", core.NewValidationError("id", "Missing id"))
	}

	start := time.Now()
	if h.metrics != nil {
		defer func() { h.metrics.DeleteDuration.Observe(time.Since(start).Seconds()) }()
	}

	if err := h.latency.Wait(ctx); err != nil {
		return failure(IntentDelete, sub.ID, &core.TransientError{ID: sub.ID, Err: err})
	}
	if h.failure.ShouldFail() {
		return failure(IntentDelete, sub.ID, &core.TransientError{ID: sub.ID})
	}

	n, err := h.svc.DeleteNote(ctx, sub.ID)
	if err != nil {
		return failure(IntentDelete, sub.ID, err)
	}
	return success(IntentDelete, n)
}
