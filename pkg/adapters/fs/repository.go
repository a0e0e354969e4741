package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/git"
)

// DefaultSystemDir holds the index cache and is ignored by git.
const DefaultSystemDir = ".notes"

// Repository implements core.Repository with one Markdown file per note,
// optionally versioned with git.
type Repository struct {
	Path   string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastChange    *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".notes"

	// OnWatchError receives errors reported by the watcher. They are logged otherwise.
	OnWatchError func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("notes path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("notes path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo(ctx) {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := r.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(ctx, fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system directory and lock file out of git.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock", TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Create writes a new note file and, with git enabled, commits it.
func (r *Repository) Create(ctx context.Context, n core.Note) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	name, err := fileName(n.ID)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(r.Path, name)

	if _, err := os.Stat(fullPath); err == nil {
		return fmt.Errorf("note %s already exists", n.ID)
	}

	data, err := encodeNote(n)
	if err != nil {
		return fmt.Errorf("failed to serialize note: %w", err)
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		r.cache.Set(name, &indexEntry{
			ID:           n.ID,
			Title:        n.Title,
			Body:         n.Body,
			CreatedAt:    n.CreatedAt,
			LastModified: info.ModTime(),
		})
	}

	return r.commit(ctx, func() error { return r.git.Add(ctx, name) }, "docs(notes): create "+n.ID)
}

// Get reads and parses a note file.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	name, err := fileName(id)
	if err != nil {
		return core.Note{}, core.ErrNotFound
	}
	return r.read(name)
}

func (r *Repository) read(name string) (core.Note, error) {
	fullPath := filepath.Join(r.Path, name)
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Note{}, core.ErrNotFound
		}
		return core.Note{}, err
	}
	defer f.Close()

	n, hasHeader, err := decodeNote(f)
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to parse note %s: %w", name, err)
	}
	n.ID = strings.TrimSuffix(name, Extension)

	// Hand-written files: title from the file name, timestamp from the file.
	if !hasHeader || n.Title == "" {
		n.Title = n.ID
	}
	if !hasHeader || n.CreatedAt.IsZero() {
		if info, err := f.Stat(); err == nil {
			n.CreatedAt = info.ModTime().UTC()
		}
	}
	return n, nil
}

// List scans the notes directory.
//
// Strategy:
//  1. Load the index cache from disk.
//  2. Read the directory (notes are flat; sub-directories are ignored).
//  3. For each note file, reuse the cached entry when its mtime matches,
//     otherwise parse the file and refresh the entry.
//  4. Prune entries of vanished files and save the cache.
func (r *Repository) List(ctx context.Context) ([]core.Note, error) {
	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("ignoring unreadable notes index", "error", err)
	}

	entries, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	var notes []core.Note
	seen := make(map[string]bool)
	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := d.Name()
		if d.IsDir() || filepath.Ext(name) != Extension || isTempFile(name) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		seen[name] = true

		if entry, hit := r.cache.Get(name, info.ModTime()); hit {
			notes = append(notes, entry.note())
			continue
		}

		n, err := r.read(name)
		if err != nil {
			r.config.Logger.Warn("skipping unparseable note", "file", name, "error", err)
			continue
		}
		r.cache.Set(name, &indexEntry{
			ID:           n.ID,
			Title:        n.Title,
			Body:         n.Body,
			CreatedAt:    n.CreatedAt,
			LastModified: info.ModTime(),
		})
		notes = append(notes, n)
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil {
			r.config.Logger.Warn("failed to save notes index", "error", err)
		}
	}

	core.SortNotes(notes)
	return notes, nil
}

// Delete removes a note file and, with git enabled, commits the removal.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	name, err := fileName(id)
	if err != nil {
		return core.ErrNotFound
	}
	fullPath := filepath.Join(r.Path, name)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return core.ErrNotFound
	}

	if r.config.Gitless || !r.tracked(ctx, name) {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		r.cache.Delete(name)
		return nil
	}

	err = r.commit(ctx, func() error { return r.git.Rm(ctx, name) }, "docs(notes): delete "+id)
	r.cache.Delete(name)
	return err
}

// commit stages a change under the git lock and records it.
func (r *Repository) commit(ctx context.Context, stage func() error, msg string) error {
	if r.config.Gitless {
		return nil
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := stage(); err != nil {
		return fmt.Errorf("failed to stage change: %w", err)
	}
	if err := r.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// tracked reports whether git knows about the file. Hand-written notes may not be committed yet.
func (r *Repository) tracked(ctx context.Context, name string) bool {
	_, err := r.git.Run(ctx, "ls-files", "--error-unmatch", "--", name)
	return err == nil
}

// History returns the commit subjects of the notes directory, newest first.
func (r *Repository) History(ctx context.Context) ([]string, error) {
	if r.config.Gitless {
		return nil, fmt.Errorf("%w: versioning is disabled", core.ErrNoHistory)
	}
	return r.git.Log(ctx)
}

// fileName maps an id onto a file inside the notes directory.
func fileName(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid note id %q", id)
	}
	return id + Extension, nil
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
