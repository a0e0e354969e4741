package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/pkg/adapters/sqlite"
	"github.com/joelazar/fancy-forms/pkg/core"
)

func setupRepo(t *testing.T, path string) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func note(id string, minute int) core.Note {
	return core.Note{
		ID:        id,
		Title:     "T " + id,
		Body:      "B " + id,
		CreatedAt: time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC),
	}
}

func TestRepository_CRUD(t *testing.T) {
	repo := setupRepo(t, sqlite.MemoryPath)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, note("b", 2)))
	require.NoError(t, repo.Create(ctx, note("a", 2)))
	require.NoError(t, repo.Create(ctx, note("c", 1)))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	if diff := cmp.Diff(note("a", 2), got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids, "ordered by time then id")

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrNotFound)
}

func TestRepository_Duplicate(t *testing.T) {
	repo := setupRepo(t, sqlite.MemoryPath)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, note("x", 1)))
	err := repo.Create(ctx, note("x", 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRepository_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "notes.db")
	ctx := context.Background()

	first := setupRepo(t, path)
	require.NoError(t, first.Create(ctx, note("kept", 1)))
	require.NoError(t, first.Close())

	second := setupRepo(t, path)
	notes, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "kept", notes[0].ID)

	state := second.State().(sqlite.RepositoryState)
	assert.Equal(t, path, state.Path)
	assert.Equal(t, "sqlite", second.ComponentType())
}
