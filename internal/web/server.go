package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kazipost/kazipost/internal/geocode"
	"github.com/kazipost/kazipost/internal/media"
	"github.com/kazipost/kazipost/internal/platform/timeouts"
	"github.com/kazipost/kazipost/internal/submit"
	"github.com/kazipost/kazipost/internal/telemetry"
)

// Config holds the web server configuration.
type Config struct {
	HTTPAddr       string
	MediaBaseURL   string
	GeocodeBaseURL string
	TaskEndpoint   string
}

// Server is the posting wizard's HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewServer wires the wizard's collaborators and routes. emitter may be nil.
func NewServer(cfg Config, emitter *telemetry.Emitter) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http addr is required")
	}

	handler := newHandler(sessionDeps{
		media:     media.NewClient(cfg.MediaBaseURL, nil),
		lookup:    geocode.NewClient(cfg.GeocodeBaseURL, nil),
		publisher: submit.NewBoundary(cfg.TaskEndpoint, nil),
		emitter:   emitter,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           otelhttp.NewHandler(handler, "kazipost.web"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("posting wizard listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
