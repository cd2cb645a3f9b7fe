// Package httpapi exposes the pipeline orchestrator over HTTP: POST
// /checks/run, GET /healthz, and GET /metrics, grounded on
// blackcoderx-falcon/pkg/web's bind/register/shutdown server shape but
// without its embedded static UI, which has no home in a backend
// probability-estimation service.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/proofline/proofline/pkg/pipeline"
	"github.com/proofline/proofline/pkg/schema"
	"github.com/proofline/proofline/pkg/telemetry"
)

// Server hosts the check-run API against one Pipeline.
type Server struct {
	Pipeline   *pipeline.Pipeline
	PromptsDir string
	Usage      UsageProvider
	Logger     zerolog.Logger
	Telemetry  *telemetry.Recorder
}

// UsageProvider is the external quota/billing collaborator (§6): given a
// claim's requester context it returns the current plan/usage, or nil when
// no quota system is configured. Satisfied by fakes in tests; production
// wiring is left to the embedding application since quota/auth/billing are
// explicitly external collaborators, not part of this module.
type UsageProvider interface {
	UsageFor(ctx context.Context, r *http.Request) (*schema.UsagePlan, error)
}

// Start binds addr (host:port, or ":0" for an OS-assigned port on all
// interfaces), registers routes, and begins serving in a background
// goroutine, matching the teacher's Start(...) (port, shutdown, err) shape.
func (s *Server) Start(addr string) (actualAddr string, shutdown func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("httpapi: failed to bind %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	srv := &http.Server{
		Handler:      loggingMiddleware(s.Logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 605 * time.Second,
	}

	go func() { _ = srv.Serve(ln) }()

	shutdown = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	return ln.Addr().String(), shutdown, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /checks/run", s.handleRunCheck)
	if s.Telemetry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Telemetry.Registry, promhttp.HandlerOpts{}))
	}
}

// loggingMiddleware logs one structured line per request, carrying method,
// path, status, and latency, in the style of the teacher's corsMiddleware
// wrapping pattern (but logging rather than CORS, since this API has no
// browser-origin caller to relax same-origin rules for).
func loggingMiddleware(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
