package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
)

// Server serves the cluster-tree data API over HTTP.
type Server struct {
	store *treestore.Store
	cache *ttlCache

	httpServer *http.Server
	authToken  string
}

// New builds a server over an already loaded store.
func New(store *treestore.Store, cfg Config) *Server {
	s := &Server{
		store:     store,
		cache:     newTTLCache(cfg.Cache.ttl(), cfg.Cache.MaxEntries),
		authToken: cfg.AuthToken,
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux.
	// Recovery must be outer-most to catch everything.
	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", handler)

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rootMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the full handler chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run serves HTTP until Shutdown is called. It always returns a non-nil
// error; after a clean shutdown that error is http.ErrServerClosed.
func (s *Server) Run() error {
	slog.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
