package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultEventBuffer = 100

// Service handles the business logic for notes.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu              sync.RWMutex
	eventBufferSize int
	subscribers     map[int]*subscriber
	nextSub         int
}

type subscriber struct {
	pattern string
	ch      chan Event
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how note IDs are assigned.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) { s.newID = gen }
}

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithEventBuffer sets the per-subscriber event buffer. Zero keeps the default.
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:            repo,
		validate:        validator.New(),
		logger:          slog.Default(),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		eventBufferSize: defaultEventBuffer,
		subscribers:     make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Repository exposes the underlying store.
func (s *Service) Repository() Repository {
	return s.repo
}

// Close releases the repository when it holds a connection or file handle.
func (s *Service) Close() error {
	if c, ok := s.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// History lists the recorded changes of a versioned store, newest first.
func (s *Service) History(ctx context.Context) ([]string, error) {
	v, ok := s.repo.(Versioned)
	if !ok {
		return nil, ErrNoHistory
	}
	return v.History(ctx)
}

// CreateNote validates the input and persists a new note with a server-assigned
// ID and timestamp.
func (s *Service) CreateNote(ctx context.Context, title, body string) (Note, error) {
	in := NoteInput{Title: title, Body: body}
	if err := s.validate.Struct(in); err != nil {
		return Note{}, toValidationError(err)
	}

	n := Note{
		ID:        s.newID(),
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return Note{}, fmt.Errorf("failed to create note: %w", err)
	}

	s.logger.Debug("note created", "id", n.ID)
	s.publish(newEvent(EventCreate, n.ID, n.CreatedAt))
	return n, nil
}

// GetNote retrieves a note.
func (s *Service) GetNote(ctx context.Context, id string) (Note, error) {
	if err := s.validate.Var(id, "required"); err != nil {
		return Note{}, NewValidationError("id", "Missing id")
	}
	return s.repo.Get(ctx, id)
}

// ListNotes retrieves all notes, oldest first.
func (s *Service) ListNotes(ctx context.Context) ([]Note, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	sortNotes(notes)
	return notes, nil
}

// DeleteNote removes a note and returns the removed record.
func (s *Service) DeleteNote(ctx context.Context, id string) (Note, error) {
	if err := s.validate.Var(id, "required"); err != nil {
		return Note{}, NewValidationError("id", "Missing id")
	}

	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return Note{}, err
	}

	s.logger.Debug("note deleted", "id", id)
	s.publish(newEvent(EventDelete, id, s.now()))
	return n, nil
}

// Watch observes changes in the store.
// Watchable repositories report their own changes (including ones made by other
// processes); for the rest the service reports the changes it performs itself.
// The returned channel is buffered so that a slow consumer never blocks writers.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	if w, ok := s.repo.(Watchable); ok {
		upstream, err := w.Watch(ctx, pattern)
		if err != nil {
			return nil, err
		}
		out := make(chan Event, s.bufferSize())
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-upstream:
					if !ok {
						return
					}
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		return out, nil
	}

	sub := &subscriber{pattern: pattern, ch: make(chan Event, s.bufferSize())}
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subscribers[key] = sub
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, key)
		close(sub.ch)
		s.mu.Unlock()
	}()
	return sub.ch, nil
}

func (s *Service) bufferSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventBufferSize
}

func (s *Service) publish(e Event) {
	if _, ok := s.repo.(Watchable); ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		if match, _ := doublestar.Match(sub.pattern, e.ID); !match {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			s.logger.Warn("dropping event for slow watcher", "event", e.String())
		}
	}
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		return NewValidationError(strings.ToLower(field), field+" is required")
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
