// Package redis stores notes in Redis so several server instances can share
// one collection. Changes are broadcast over pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/redis/go-redis/v9"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// DefaultPrefix namespaces every key written by the repository.
const DefaultPrefix = "notes"

// Repository implements core.Repository and core.Watchable on Redis.
//
// Layout:
//
//	{prefix}:note:{id}  hash with title, body and created_at
//	{prefix}:index      sorted set of ids scored by creation time
//	{prefix}:events     pub/sub channel carrying core.Event as JSON
type Repository struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

// WithLogger sets the logger used for broadcast failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository wraps an existing client.
func NewRepository(rdb *redis.Client, opts ...Option) *Repository {
	r := &Repository{
		rdb:    rdb,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Addr       string `json:"addr"`
	Prefix     string `json:"prefix"`
	TotalConns uint32 `json:"total_connections"`
	IdleConns  uint32 `json:"idle_connections"`
}

func (r *Repository) noteKey(id string) string { return r.prefix + ":note:" + id }
func (r *Repository) indexKey() string         { return r.prefix + ":index" }
func (r *Repository) eventsKey() string        { return r.prefix + ":events" }

// Close closes the underlying client.
func (r *Repository) Close() error {
	return r.rdb.Close()
}

// Initialize checks connectivity.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Create stores a note. Ids are unique.
func (r *Repository) Create(ctx context.Context, n core.Note) error {
	key := r.noteKey(n.ID)
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("note %s already exists", n.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"title", n.Title,
				"body", n.Body,
				"created_at", n.CreatedAt.UTC().Format(time.RFC3339Nano),
			)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: n.ID})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	r.publish(ctx, core.EventCreate, n.ID)
	return nil
}

// Get fetches a single note.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	fields, err := r.rdb.HGetAll(ctx, r.noteKey(id)).Result()
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to get note: %w", err)
	}
	if len(fields) == 0 {
		return core.Note{}, core.ErrNotFound
	}
	return decodeNote(id, fields)
}

// List returns all notes in creation order.
func (r *Repository) List(ctx context.Context) ([]core.Note, error) {
	ids, err := r.rdb.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.noteKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	notes := make([]core.Note, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // removed between the two round trips
		}
		n, err := decodeNote(ids[i], fields)
		if err != nil {
			r.logger.Warn("skipping unreadable note", "id", ids[i], "error", err)
			continue
		}
		notes = append(notes, n)
	}
	core.SortNotes(notes)
	return notes, nil
}

// Delete removes a note.
func (r *Repository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.noteKey(id))
		pipe.ZRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if del.Val() == 0 {
		return core.ErrNotFound
	}
	r.publish(ctx, core.EventDelete, id)
	return nil
}

func (r *Repository) publish(ctx context.Context, t core.EventType, id string) {
	payload, err := json.Marshal(core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, r.eventsKey(), payload).Err(); err != nil {
		r.logger.Warn("failed to broadcast note event", "id", id, "error", err)
	}
}

// Watch subscribes to changes made by any instance sharing the prefix.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	sub := r.rdb.Subscribe(ctx, r.eventsKey())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	events := make(chan core.Event, 100)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				var e core.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					r.logger.Debug("ignoring malformed note event", "payload", msg.Payload)
					continue
				}
				if match, _ := doublestar.Match(pattern, e.ID); !match {
					continue
				}
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return events, nil
}

func decodeNote(id string, fields map[string]string) (core.Note, error) {
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return core.Note{}, errors.New("invalid created_at")
	}
	return core.Note{
		ID:        id,
		Title:     fields["title"],
		Body:      fields["body"],
		CreatedAt: created.UTC(),
	}, nil
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	stats := r.rdb.PoolStats()
	return RepositoryState{
		Addr:       r.rdb.Options().Addr,
		Prefix:     r.prefix,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "redis"
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
