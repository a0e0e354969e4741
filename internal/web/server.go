// Package web serves the notes page and its JSON protocol over gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/mutation"
)

// ShutdownTimeout bounds the graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Lister reads the note collection.
type Lister interface {
	ListNotes(ctx context.Context) ([]core.Note, error)
}

// Mutator applies form submissions.
type Mutator interface {
	Handle(ctx context.Context, sub mutation.Submission) mutation.Result
}

// Server is the HTTP surface of the notes app.
type Server struct {
	engine  *gin.Engine
	notes   Lister
	mutator Mutator
	logger  *slog.Logger
	limiter *limiterStore

	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	requests *prometheus.CounterVec

	components map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request logs and server events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRateLimit limits mutations per client IP. A zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newLimiterStore(rps, burst)
	}
}

// WithMetrics registers request metrics on reg and serves gatherer at /metrics.
func WithMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.registry = reg
		s.gatherer = gatherer
	}
}

// WithComponent exposes the state of c under name at /debug/state.
// c should implement introspection.Introspectable.
func WithComponent(name string, c any) Option {
	return func(s *Server) { s.components[name] = c }
}

// NewServer builds the gin engine and its routes.
func NewServer(notes Lister, mutator Mutator, opts ...Option) (*Server, error) {
	s := &Server{
		notes:      notes,
		mutator:    mutator,
		logger:     slog.Default(),
		components: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if gin.Mode() != gin.TestMode {
		if s.logger.Enabled(context.Background(), slog.LevelDebug) {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(gin.Recovery(), requestLogger(s.logger))
	if s.registry != nil {
		s.requests = newRequestCounter(s.registry)
		engine.Use(countRequests(s.requests))
	}

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, NotesPath)
	})
	engine.GET(NotesPath, s.listNotes)
	mutations := engine.Group(NotesPath)
	if s.limiter != nil {
		mutations.Use(rateLimit(s.limiter, s.rejectRateLimited))
	}
	mutations.POST("", s.submit)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/debug/state", s.state)
	if s.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = engine
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	if s.limiter != nil {
		s.limiter.startJanitor(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
