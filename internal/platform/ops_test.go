package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/internal/platform"
	"github.com/joelazar/fancy-forms/pkg/adapters/fs"
	"github.com/joelazar/fancy-forms/pkg/adapters/memory"
	"github.com/joelazar/fancy-forms/pkg/adapters/sqlite"
	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/git"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("AutoInit=true Creates Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes")

		repo, err := platform.Init(ctx, path, platform.WithAutoInit(true), platform.WithVersioning(false))
		require.NoError(t, err)

		fsRepo, ok := repo.(*fs.Repository)
		require.True(t, ok, "expected fs repository")
		assert.Equal(t, path, fsRepo.Path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("AutoInit=false Requires Directory", func(t *testing.T) {
		_, err := platform.Init(ctx, filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("Versioning Follows .git", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		path := t.TempDir()
		require.NoError(t, git.NewClient(path, "", nil).Init(ctx))

		repo, err := platform.Init(ctx, path)
		require.NoError(t, err)
		state := repo.(*fs.Repository).State().(fs.RepositoryState)
		assert.False(t, state.Gitless)
	})

	t.Run("SQLite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.db")
		repo, err := platform.Init(ctx, path, platform.WithAdapter(platform.AdapterSQLite), platform.WithAutoInit(true))
		require.NoError(t, err)
		sqliteRepo, ok := repo.(*sqlite.Repository)
		require.True(t, ok)
		t.Cleanup(func() { _ = sqliteRepo.Close() })
	})

	t.Run("SQLite Must Exist Without AutoInit", func(t *testing.T) {
		_, err := platform.Init(ctx, filepath.Join(t.TempDir(), "none.db"), platform.WithAdapter(platform.AdapterSQLite))
		assert.Error(t, err)
	})

	t.Run("Memory", func(t *testing.T) {
		repo, err := platform.Init(ctx, "", platform.WithAdapter(platform.AdapterMemory))
		require.NoError(t, err)
		assert.IsType(t, &memory.Repository{}, repo)
	})

	t.Run("Invalid Redis URL", func(t *testing.T) {
		_, err := platform.Init(ctx, "not a url", platform.WithAdapter(platform.AdapterRedis))
		assert.Error(t, err)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(ctx, "", platform.WithAdapter("s3"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown adapter")
		assert.False(t, platform.ValidAdapter("s3"))
		assert.True(t, platform.ValidAdapter(platform.AdapterRedis))
	})

	t.Run("Injected Repository Wins", func(t *testing.T) {
		injected := memory.NewRepository()
		repo, err := platform.Init(ctx, "ignored", platform.WithAdapter("s3"), platform.WithRepository(injected))
		require.NoError(t, err)
		assert.Same(t, injected, repo)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes")

	svc, err := platform.New(ctx, path, platform.WithAutoInit(true), platform.WithVersioning(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	n, err := svc.CreateNote(ctx, "Hello", "World")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(path, n.ID+fs.Extension))
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Hello", notes[0].Title)

	_, err = svc.DeleteNote(ctx, n.ID)
	require.NoError(t, err)
	_, err = svc.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
