package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It deliberately does NOT implement core.Watchable so the service publishes events itself.
type MockRepository struct {
	mu    sync.Mutex
	notes map[string]core.Note
	fail  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		notes: make(map[string]core.Note),
	}
}

func (m *MockRepository) Create(ctx context.Context, n core.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.notes[n.ID] = n
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, core.ErrNotFound
	}
	return n, nil
}

func (m *MockRepository) List(ctx context.Context) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notes []core.Note
	for _, n := range m.notes {
		notes = append(notes, n)
	}
	return notes, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

func newTestService(repo core.Repository) *core.Service {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var seq int
	return core.NewService(repo,
		core.WithClock(func() time.Time {
			seq++
			return base.Add(time.Duration(seq) * time.Minute)
		}),
		core.WithIDGenerator(func() string {
			return fmt.Sprintf("note-%d", seq+1)
		}),
	)
}

func TestService_CRUD(t *testing.T) {
	repo := NewMockRepository()
	service := newTestService(repo)
	ctx := context.TODO()

	// 1. Create
	n, err := service.CreateNote(ctx, "Groceries", "milk, eggs")
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "milk, eggs", n.Body)

	// 2. Get
	got, err := service.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)

	// 3. List is ordered by creation time
	second, err := service.CreateNote(ctx, "Chores", "laundry")
	require.NoError(t, err)
	notes, err := service.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.Equal(t, second.ID, notes[1].ID)

	// 4. Delete returns the removed record
	removed, err := service.DeleteNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, removed)

	_, err = service.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{"empty title", "", "body", "Title is required"},
		{"empty body", "title", "", "Body is required"},
		{"both empty reports title first", "", "", "Title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			service := newTestService(repo)

			_, err := service.CreateNote(context.Background(), tt.title, tt.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.Equal(t, tt.want, err.Error())

			notes, _ := repo.List(context.Background())
			assert.Empty(t, notes, "no record must be created")
		})
	}
}

func TestService_DeleteMissingID(t *testing.T) {
	repo := NewMockRepository()
	service := newTestService(repo)
	ctx := context.Background()

	n, err := service.CreateNote(ctx, "keep", "me")
	require.NoError(t, err)

	_, err = service.DeleteNote(ctx, "")
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Missing id", verr.Message)
	assert.Equal(t, "id", verr.Field)

	_, err = service.GetNote(ctx, n.ID)
	assert.NoError(t, err, "no mutation must happen")
}

func TestService_DeleteUnknown(t *testing.T) {
	service := newTestService(NewMockRepository())
	_, err := service.DeleteNote(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_StoreFailureIsWrapped(t *testing.T) {
	repo := NewMockRepository()
	repo.fail = errors.New("disk full")
	service := newTestService(repo)

	_, err := service.CreateNote(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotErrorIs(t, err, core.ErrValidation)
}

func TestService_WatchPublishesLocalChanges(t *testing.T) {
	service := newTestService(NewMockRepository())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := service.Watch(ctx, "")
	require.NoError(t, err)

	n, err := service.CreateNote(ctx, "t", "b")
	require.NoError(t, err)
	_, err = service.DeleteNote(ctx, n.ID)
	require.NoError(t, err)

	for _, want := range []core.EventType{core.EventCreate, core.EventDelete} {
		select {
		case e := <-events:
			assert.Equal(t, want, e.Type)
			assert.Equal(t, n.ID, e.ID)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-events:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestService_WatchRejectsBadPattern(t *testing.T) {
	service := newTestService(NewMockRepository())
	_, err := service.Watch(context.Background(), "[")
	assert.Error(t, err)
}

func TestService_State(t *testing.T) {
	service := core.NewService(NewMockRepository(), core.WithEventBuffer(7))
	state, ok := service.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 7, state.EventBufferSize)
	assert.Equal(t, "repository", state.RepositoryType)
	assert.Equal(t, "service", service.ComponentType())
}

type closingRepository struct {
	*MockRepository
	closed bool
}

func (c *closingRepository) Close() error {
	c.closed = true
	return nil
}

func TestService_Close(t *testing.T) {
	repo := &closingRepository{MockRepository: NewMockRepository()}
	require.NoError(t, core.NewService(repo).Close())
	assert.True(t, repo.closed)

	assert.NoError(t, core.NewService(NewMockRepository()).Close())
}

type versionedRepository struct {
	*MockRepository
}

func (v versionedRepository) History(ctx context.Context) ([]string, error) {
	return []string{"delete a", "create a"}, nil
}

func TestService_History(t *testing.T) {
	history, err := core.NewService(versionedRepository{NewMockRepository()}).History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete a", "create a"}, history)

	_, err = core.NewService(NewMockRepository()).History(context.Background())
	assert.ErrorIs(t, err, core.ErrNoHistory)
}
