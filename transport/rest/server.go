package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	logger  *slog.Logger
	handler http.Handler
	srv     *http.Server
}

// New - builds the HTTP routes: health check and metrics exposition.
func New(logger *slog.Logger, port string, gatherer prometheus.Gatherer, metricsPath string) *Server {
	log := logger.With("component", "rest")

	server := &Server{
		logger: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", server.handlePing)
	mux.Handle("GET "+metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}))

	server.handler = mux
	server.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return server
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - listens on the configured port. Returns nil once Shutdown is called.
func (that *Server) Start() error {
	that.logger.Info("Starting HTTP server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
