// Package web exposes the review service over HTTP: a JSON API under
// /api plus the embedded single-page interface.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/recall/internal/deck"
	"github.com/conorfennell/recall/internal/logger"
	"github.com/conorfennell/recall/internal/storage"
)

//go:embed all:static
var staticFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	store    *storage.Store
	syncer   *deck.Syncer
	router   *http.ServeMux
	handler  http.Handler
	log      *logger.Logger
	validate *validator.Validate
	dueLimit int
}

// NewServer creates and configures a new server. dueLimit caps how many
// items one review session hands out.
func NewServer(store *storage.Store, syncer *deck.Syncer, dueLimit int, log *logger.Logger) *Server {
	s := &Server{
		store:    store,
		syncer:   syncer,
		router:   http.NewServeMux(),
		log:      log,
		validate: validator.New(),
		dueLimit: dueLimit,
	}
	s.routes()
	s.handler = s.withAccessLog(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.log.Fatal("failed to mount static assets", "error", err)
	}
	s.router.Handle("/", http.FileServer(http.FS(staticFS)))

	s.router.HandleFunc("/api/due", s.handleDue())
	s.router.HandleFunc("/api/items", s.handleItems())
	s.router.HandleFunc("/api/add", s.handleAdd())
	s.router.HandleFunc("/api/review", s.handleReview())
	s.router.HandleFunc("/api/delete", s.handleDelete())
	s.router.HandleFunc("/api/history", s.handleHistory())
	s.router.HandleFunc("/api/stats", s.handleStats())
	s.router.HandleFunc("/api/categories", s.handleCategories())
	s.router.HandleFunc("/api/sources", s.handleSources())
	s.router.HandleFunc("/api/sync", s.handleSync())
}

// withAccessLog tags every request with an id and logs one line on the
// way out.
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
