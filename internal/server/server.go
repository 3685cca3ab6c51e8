// Package server exposes the import pipeline and the case/usage views over
// HTTP. The reconciliation logic lives in internal/ingest; handlers here
// only translate between HTTP and the pipeline's contracts.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ymatsuda/caseload/internal/store"
)

// Server is the HTTP front of the case registry.
type Server struct {
	pool      *pgxpool.Pool
	store     *store.Store
	log       zerolog.Logger
	headerMap map[string]string
	staticDir string
	router    *chi.Mux
}

// New assembles the router. headerMap is the label → field table the import
// pipeline validates against; staticDir, when non-empty, is served at /.
func New(pool *pgxpool.Pool, log zerolog.Logger, headerMap map[string]string, staticDir string) *Server {
	s := &Server{
		pool:      pool,
		store:     store.New(pool),
		log:       log,
		headerMap: headerMap,
		staticDir: staticDir,
		router:    chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/import-csv", s.handleImportCSV)
		r.Get("/cases", s.handleListCases)
		r.Get("/cases/{caseID}/usage", s.handleGetUsage)
		r.Put("/cases/{caseID}/usage", s.handleReplaceUsage)
		r.Get("/health", s.handleHealth)
	})

	if s.staticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return srv.ListenAndServe()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
