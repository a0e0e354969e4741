package fs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Watch reports notes created or removed in the notes directory, including
// changes made by other processes. The channel closes when ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}

	events := make(chan core.Event, 100)
	r.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatcherActive(false)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watcher events channel closed")
				}
				e, ok := r.mapEvent(event, pattern)
				if !ok {
					continue
				}
				r.config.Logger.Debug("note changed on disk", "event", e.String())
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}

			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.handleWatchError(wErr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.handleWatchError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

// mapEvent translates a filesystem event into a note event.
// Writes are ignored; notes are never edited in place.
func (r *Repository) mapEvent(event fsnotify.Event, pattern string) (core.Event, bool) {
	name := filepath.Base(event.Name)
	if filepath.Ext(name) != Extension || isTempFile(name) || strings.HasPrefix(name, ".") {
		return core.Event{}, false
	}
	id := strings.TrimSuffix(name, Extension)
	if match, _ := doublestar.Match(pattern, id); !match {
		return core.Event{}, false
	}

	var t core.EventType
	switch {
	case event.Has(fsnotify.Create):
		t = core.EventCreate
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		t = core.EventDelete
		r.cache.Delete(name)
	default:
		return core.Event{}, false
	}
	r.recordChange()

	return core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()}, true
}

func (r *Repository) handleWatchError(err error) {
	if r.config.OnWatchError != nil {
		r.config.OnWatchError(err)
		return
	}
	r.config.Logger.Error("fsnotify error", "error", err)
}
