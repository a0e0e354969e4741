package mutation_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/pkg/adapters/memory"
	"github.com/joelazar/fancy-forms/pkg/chaos"
	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/mutation"
)

func setup(t *testing.T, opts ...mutation.Option) (*mutation.Handler, *memory.Repository, *core.Service) {
	t.Helper()
	repo := memory.NewRepository()
	svc := core.NewService(repo)
	opts = append([]mutation.Option{
		mutation.WithLatency(chaos.NoDelay()),
		mutation.WithFailureStrategy(chaos.Never()),
	}, opts...)
	return mutation.NewHandler(svc, opts...), repo, svc
}

func TestParseSubmission(t *testing.T) {
	t.Run("reads _intent", func(t *testing.T) {
		sub := mutation.ParseSubmission(url.Values{"_intent": {"create"}, "title": {"t"}, "body": {"b"}})
		assert.Equal(t, mutation.Submission{Intent: mutation.IntentCreate, Title: "t", Body: "b"}, sub)
	})

	t.Run("falls back to _action", func(t *testing.T) {
		sub := mutation.ParseSubmission(url.Values{"_action": {"delete"}, "id": {"42"}})
		assert.Equal(t, mutation.IntentDelete, sub.Intent)
		assert.Equal(t, "42", sub.ID)
	})

	t.Run("_intent wins over _action", func(t *testing.T) {
		sub := mutation.ParseSubmission(url.Values{"_intent": {"delete"}, "_action": {"create"}})
		assert.Equal(t, mutation.IntentDelete, sub.Intent)
	})

	t.Run("round trips through Values", func(t *testing.T) {
		in := mutation.Submission{Intent: mutation.IntentDelete, ID: "x"}
		assert.Equal(t, in, mutation.ParseSubmission(in.Values()))
	})
}

func TestHandle_Create(t *testing.T) {
	h, repo, _ := setup(t)

	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentCreate, Title: "Hello", Body: "World"})
	require.True(t, res.OK(), res.Error)
	require.NotNil(t, res.Note)
	assert.NotEmpty(t, res.Note.ID)
	assert.False(t, res.Note.CreatedAt.IsZero())
	assert.Equal(t, "Hello", res.Note.Title)
	assert.Equal(t, "World", res.Note.Body)
	assert.Equal(t, 1, repo.Len())
}

func TestHandle_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		sub  mutation.Submission
		want string
	}{
		{"missing title", mutation.Submission{Intent: mutation.IntentCreate, Body: "b"}, "Title is required"},
		{"missing body", mutation.Submission{Intent: mutation.IntentCreate, Title: "t"}, "Body is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, _ := setup(t)
			res := h.Handle(context.Background(), tt.sub)
			assert.False(t, res.OK())
			assert.Equal(t, mutation.KindValidation, res.Kind)
			assert.Equal(t, tt.want, res.Error)
			assert.ErrorIs(t, res.Err(), core.ErrValidation)
			assert.Zero(t, repo.Len())
		})
	}
}

func TestHandle_DeleteMissingID(t *testing.T) {
	failures := 0
	h, repo, svc := setup(t, mutation.WithFailureStrategy(chaos.FailureFunc(func() bool {
		failures++
		return false
	})))
	_, err := svc.CreateNote(context.Background(), "t", "b")
	require.NoError(t, err)

	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete})
	assert.Equal(t, "Missing id", res.Error)
	assert.Equal(t, mutation.KindValidation, res.Kind)
	assert.Equal(t, 1, repo.Len())
	assert.Zero(t, failures, "validation happens before fault injection")
}

func TestHandle_DeleteSuccess(t *testing.T) {
	h, repo, svc := setup(t)
	n, err := svc.CreateNote(context.Background(), "t", "b")
	require.NoError(t, err)

	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, n, *res.Note)
	assert.Zero(t, repo.Len())
}

func TestHandle_DeleteTransientFailureKeepsRecord(t *testing.T) {
	h, repo, svc := setup(t, mutation.WithFailureStrategy(chaos.Always()))
	n, err := svc.CreateNote(context.Background(), "t", "b")
	require.NoError(t, err)

	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
	assert.False(t, res.OK())
	assert.Equal(t, mutation.KindTransient, res.Kind)
	assert.Equal(t, n.ID, res.ID)
	assert.ErrorIs(t, res.Err(), core.ErrTransient)

	stored, err := repo.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored, "failure must not corrupt the record")
}

func TestHandle_DeleteUnknownID(t *testing.T) {
	h, _, _ := setup(t)
	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete, ID: "ghost"})
	assert.Equal(t, mutation.KindNotFound, res.Kind)
	assert.Equal(t, "ghost", res.ID)
}

func TestHandle_DeleteRoughlyHalfFail(t *testing.T) {
	h, repo, svc := setup(t, mutation.WithFailureStrategy(chaos.Probability(0.5, 1234)))
	ctx := context.Background()

	const trials = 400
	failed := 0
	for i := 0; i < trials; i++ {
		n, err := svc.CreateNote(ctx, "t", "b")
		require.NoError(t, err)

		res := h.Handle(ctx, mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
		_, getErr := repo.Get(ctx, n.ID)
		if res.OK() {
			assert.ErrorIs(t, getErr, core.ErrNotFound)
			continue
		}
		failed++
		assert.Equal(t, mutation.KindTransient, res.Kind)
		assert.NoError(t, getErr, "failed delete must leave the record in place")
	}

	assert.InDelta(t, trials/2, failed, trials*0.1)
	assert.Equal(t, failed, repo.Len())
}

func TestHandle_DeleteWaitsForLatency(t *testing.T) {
	h, _, svc := setup(t, mutation.WithLatency(chaos.FixedDelay(30*time.Millisecond)))
	n, err := svc.CreateNote(context.Background(), "t", "b")
	require.NoError(t, err)

	start := time.Now()
	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
	assert.True(t, res.OK())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestHandle_DeleteCancelledWhileWaiting(t *testing.T) {
	h, repo, svc := setup(t, mutation.WithLatency(chaos.FixedDelay(time.Hour)))
	n, err := svc.CreateNote(context.Background(), "t", "b")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.Handle(ctx, mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
	assert.Equal(t, mutation.KindTransient, res.Kind)
	assert.Equal(t, 1, repo.Len())
}

func TestHandle_UnknownIntent(t *testing.T) {
	for _, intent := range []mutation.Intent{"", "update", "DELETE"} {
		h, repo, _ := setup(t)
		res := h.Handle(context.Background(), mutation.Submission{Intent: intent, Title: "t", Body: "b", ID: "x"})
		assert.Equal(t, "Unknown intent", res.Error, "intent %q", intent)
		assert.Equal(t, mutation.KindValidation, res.Kind)
		assert.Zero(t, repo.Len())
	}
}

func TestResult_JSON(t *testing.T) {
	n := core.Note{ID: "1", Title: "t", Body: "b", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	h, _, _ := setup(t)

	data, err := json.Marshal(mutation.Result{Intent: mutation.IntentCreate, Note: &n})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","title":"t","body":"b","createdAt":"2024-01-01T00:00:00Z"}`, string(data))

	res := h.Handle(context.Background(), mutation.Submission{Intent: mutation.IntentDelete})
	data, err = json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Missing id"}`, string(data))

	data, err = json.Marshal(mutation.Result{Error: "boom", ID: "7", Kind: mutation.KindTransient})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom","id":"7"}`, string(data))
}

func TestHandle_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := mutation.NewMetrics(reg)
	h, _, svc := setup(t, mutation.WithMetrics(metrics), mutation.WithFailureStrategy(chaos.Always()))
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "t", "b")
	require.NoError(t, err)
	h.Handle(ctx, mutation.Submission{Intent: mutation.IntentCreate, Title: "t", Body: "b"})
	h.Handle(ctx, mutation.Submission{Intent: mutation.IntentDelete, ID: n.ID})
	h.Handle(ctx, mutation.Submission{Intent: "bogus"})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("delete", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("unknown", "validation")), "free-form intents share one label")
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.DeleteDuration))
}
