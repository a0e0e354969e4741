package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joelazar/fancy-forms/internal/config"
	"github.com/joelazar/fancy-forms/internal/web"
	"github.com/joelazar/fancy-forms/pkg/adapters/lifecycle"
	"github.com/joelazar/fancy-forms/pkg/chaos"
	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/mutation"
)

var (
	serveAddr        string
	serveFailureRate float64
	serveDelay       time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notes page",
	Long: `Serve the notes page and its JSON protocol until interrupted.
Each delete waits for the configured delay and then fails with the configured probability.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, slog.Default())
	},
}

func serve(ctx context.Context, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := mutation.NewHandler(svc,
		mutation.WithFailureStrategy(chaos.Probability(cfg.FailureRate, uint64(time.Now().UnixNano()))),
		mutation.WithLatency(chaos.FixedDelay(cfg.DeleteDelay)),
		mutation.WithLogger(logger),
		mutation.WithMetrics(mutation.NewMetrics(reg)),
	)

	g, gctx := errgroup.WithContext(ctx)

	serverOpts := []web.Option{
		web.WithLogger(logger),
		web.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		web.WithMetrics(reg, reg),
		web.WithComponent("service", svc),
		web.WithComponent("repository", svc.Repository()),
	}
	if changes, err := watchChanges(gctx, svc); err != nil {
		logger.Warn("store changes will not be reported", "error", err)
	} else {
		serverOpts = append(serverOpts, web.WithComponent("changes", changes))
		g.Go(func() error {
			logChanges(changes, logger)
			return nil
		})
	}

	server, err := web.NewServer(svc, handler, serverOpts...)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	logger.Info("starting notes server",
		"addr", cfg.Addr,
		"adapter", cfg.Adapter,
		"store", cfg.Store,
		"failure_rate", cfg.FailureRate,
		"delete_delay", cfg.DeleteDelay,
	)

	g.Go(func() error {
		return server.Run(gctx, cfg.Addr)
	})
	return g.Wait()
}

// watchChanges starts a source over every store change, including edits made
// outside the server.
func watchChanges(ctx context.Context, svc *core.Service) (*lifecycle.NoteSource, error) {
	events, err := svc.Watch(ctx, "")
	if err != nil {
		return nil, err
	}
	src := lifecycle.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return nil, err
	}
	return src, nil
}

func logChanges(src *lifecycle.NoteSource, logger *slog.Logger) {
	for e := range src.Events() {
		if ne, ok := e.(core.Event); ok {
			logger.Info("note changed", "type", ne.Type, "id", ne.ID)
		}
	}
}

// collectServeOverrides passes the serve flags the user set to config.Load.
func collectServeOverrides(cmd *cobra.Command, flags *config.Overrides) {
	if cmd != serveCmd {
		return
	}
	if cmd.Flags().Changed("addr") {
		flags.Addr = &serveAddr
	}
	if cmd.Flags().Changed("failure-rate") {
		flags.FailureRate = &serveFailureRate
	}
	if cmd.Flags().Changed("delay") {
		flags.DeleteDelay = &serveDelay
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:3000", "Listen address")
	serveCmd.Flags().Float64Var(&serveFailureRate, "failure-rate", chaos.DefaultFailureRate, "Probability that a delete fails")
	serveCmd.Flags().DurationVar(&serveDelay, "delay", chaos.DefaultDelay, "Simulated delete latency")
}
