// Package api serves the dictionary read API over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Aman-CERP/dictionary/internal/document"
	"github.com/Aman-CERP/dictionary/internal/query"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

// Querier answers entity reads. *query.Service satisfies it.
type Querier interface {
	GetByID(ctx context.Context, kind document.Kind, id string, tc tenant.Context) (json.RawMessage, bool, error)
	List(ctx context.Context, kind document.Kind, tc tenant.Context, searchValue string, page *query.Pagination) ([]json.RawMessage, error)
}

// RequestObserver receives one call per served request. It may be nil.
type RequestObserver interface {
	ObserveRequest(route string, status int, d time.Duration)
}

// Options configures a Server.
type Options struct {
	// Version is the service version reported by the info endpoint.
	Version string
	// KafkaEnabled and KafkaQueues are reported by the info endpoint.
	KafkaEnabled bool
	KafkaQueues  string
	// AllowedOrigin is the CORS origin; "*" allows any.
	AllowedOrigin string

	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Debug serves /debug/pprof/ when set.
	Debug    http.Handler
	Observer RequestObserver
}

// Server routes requests to a Querier.
type Server struct {
	querier Querier
	opts    Options
	handler http.Handler
}

// New creates a Server and registers its routes.
func New(querier Querier, opts Options) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	s := &Server{querier: querier, opts: opts}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = requestID(s.accessLog(cors(opts.AllowedOrigin, mux)))
	return s
}

// collection maps a URL collection to the kind it serves.
var collections = []struct {
	path string
	kind document.Kind
}{
	{"/api/security/menus", document.KindMenu},
	{"/api/dictionary/browsers", document.KindBrowser},
	{"/api/dictionary/forms", document.KindForm},
	{"/api/dictionary/processes", document.KindProcess},
	{"/api/dictionary/windows", document.KindWindow},
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/{$}", s.handleInfo)

	for _, c := range collections {
		mux.HandleFunc("GET "+c.path, s.handleList(c.kind))
		mux.HandleFunc("GET "+c.path+"/{id}", s.handleGet(c.kind))
	}

	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	if s.opts.Debug != nil {
		mux.Handle("GET /debug/pprof/", s.opts.Debug)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http_server_started", slog.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("http_server_stopped")
	return nil
}
