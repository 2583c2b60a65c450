package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/fetch"
	"workbench/internal/orchestrator"
	"workbench/internal/reporting"
	"workbench/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultAddr keeps the control API on the loopback interface.
	DefaultAddr = "127.0.0.1:7411"

	maxRequestBodySize = 1 << 20
	shutdownTimeout    = 5 * time.Second
	eventBuffer        = 256
)

// Orchestrator is the subset of the stack orchestrator the API drives.
type Orchestrator interface {
	State() orchestrator.State
	Config() (config.StackConfig, error)
	SaveConfig(cfg config.StackConfig) ([]string, error)
	CheckPrerequisites(ctx context.Context) (containerizer.Prerequisites, error)
	InstallArtifact(ctx context.Context, spec orchestrator.ArtifactSpec, destDir string) (fetch.Artifact, error)
	PullImages(ctx context.Context) error
	StartStack(ctx context.Context) (orchestrator.StartResult, error)
	Stop(ctx context.Context) error
	Logs(ctx context.Context, service string, tail int) (string, error)
	Status(ctx context.Context) (orchestrator.Status, error)
	Containers(ctx context.Context) ([]containerizer.ContainerInfo, error)
	WebUIURL() (string, error)
}

// Server exposes an Orchestrator over HTTP.
type Server struct {
	orch Orchestrator
	bus  *reporting.Bus
}

// NewServer creates a control API server. bus may be nil, in which case
// /api/events is not routed.
func NewServer(orch Orchestrator, bus *reporting.Bus) *Server {
	return &Server{orch: orch, bus: bus}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(bodySizeLimitMiddleware)

			r.Get("/config", s.getConfig)
			r.Put("/config", s.putConfig)

			r.Post("/setup/check", s.checkPrerequisites)
			r.Post("/setup/artifacts/{name}", s.installArtifact)

			r.Route("/stack", func(r chi.Router) {
				r.Post("/pull", s.pull)
				r.Post("/start", s.start)
				r.Post("/stop", s.stop)
				r.Get("/logs/{service}", s.logs)
				r.Get("/status", s.status)
				r.Get("/containers", s.containers)
				r.Get("/state", s.state)
			})

			r.Get("/webui-url", s.webUIURL)
		})

		if s.bus != nil {
			r.Get("/events", s.events)
		}
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server", "Graceful shutdown failed: %v", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logging.Info("Server", "Control API stopped")
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug("API", "%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}
