package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/metrics"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/statehub"
	"github.com/vango-dev/reactor/pkg/tracing"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a reactive object over HTTP",
		Long: `Serve a reactive object over HTTP with a WebSocket change feed.

Changes to the config file are picked up while the server runs; the log
level follows log.level without a restart.

Examples:
  reactor serve
  reactor serve --addr 127.0.0.1:8080
  reactor serve --config ./reactor.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Serve.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from reactor.yaml)")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newServer(ctx, a)
	if err != nil {
		return err
	}
	defer s.close()

	if path := a.cfg.Path(); path != "" {
		go func() {
			err := config.Watch(ctx, path, a.logger, func(cfg *config.Config) {
				s.reload(cfg)
			})
			if err != nil {
				a.logger.Error("config watch stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.Serve.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info("serving", "addr", a.cfg.Serve.Addr, "metrics", a.cfg.Serve.MetricsPath)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.hub.Close(shutdownCtx); err != nil {
		a.logger.Warn("hub close", "err", err)
	}
	return srv.Shutdown(shutdownCtx)
}

// server wires the engine loop, the state hub and the metrics endpoint.
type server struct {
	a       *app
	loop    *reactive.Loop
	hub     *statehub.Hub
	handler http.Handler

	// live mirrors the reloadable part of the config. Loop-owned.
	live *reactive.View
}

func newServer(ctx context.Context, a *app) (*server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	observers := []reactive.Observer{metrics.New(metrics.WithRegistry(reg))}
	if a.cfg.Tracing.Enabled {
		observers = append(observers, tracing.New(tracing.WithTracerName(a.cfg.Tracing.TracerName)))
	}

	s := &server{
		a:    a,
		loop: reactive.NewLoop(a.engineOptions(observers...)...),
	}

	err := s.loop.Do(ctx, func(e *reactive.Engine) {
		s.live = e.Reactive(reactive.NewObject().Put("level", a.cfg.Log.Level))
	})
	if err == nil {
		err = s.watchLevel(ctx)
	}
	if err != nil {
		s.loop.Close()
		return nil, err
	}

	s.hub, err = statehub.New(ctx, s.loop, statehub.WithLogger(a.logger.With("component", "statehub")))
	if err != nil {
		s.loop.Close()
		return nil, err
	}

	r := chi.NewRouter()
	r.Handle(a.cfg.Serve.MetricsPath, metrics.Handler(reg))
	r.Mount("/", s.hub.Router())
	s.handler = r
	return s, nil
}

// watchLevel keeps the process log level in step with the live config.
func (s *server) watchLevel(ctx context.Context) error {
	var werr error
	err := s.loop.Do(ctx, func(e *reactive.Engine) {
		_, werr = e.Watch(func() any {
			return s.live.Get("level")
		}, func(newValue, oldValue any, _ func(func())) {
			level := fmt.Sprint(newValue)
			s.a.level.Set(config.ParseLevel(level))
			s.a.logger.Info("log level changed", "from", oldValue, "to", level)
		})
	})
	if err != nil {
		return err
	}
	return werr
}

// reload applies a new config to the running server. Only the log level is
// reloadable; other changes need a restart.
func (s *server) reload(cfg *config.Config) {
	if !s.loop.Post(func(*reactive.Engine) {
		s.live.Set("level", cfg.Log.Level)
	}) {
		s.a.logger.Warn("config reload dropped, loop unavailable")
	}
}

func (s *server) close() {
	s.loop.Close()
}
