// Package api provides the HTTP handlers for the mining dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fridell/cartlens/internal/config"
	"github.com/fridell/cartlens/internal/mining"
	"github.com/fridell/cartlens/internal/session"
	"github.com/fridell/cartlens/pkg/models"
	"github.com/fridell/cartlens/web"
)

// Server is the dashboard HTTP server.
type Server struct {
	cfg      config.Config
	sessions *session.Store
	miner    mining.Miner
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates the API server with all routes wired.
func NewServer(cfg config.Config, sessions *session.Store, miner mining.Miner) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		miner:    miner,
		router:   chi.NewRouter(),
	}

	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.HandleHealth)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.login)

		// Everything else requires a live session.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/logout", s.logout)
			r.Get("/session", s.getSession)

			r.Post("/dataset", s.uploadDataset)
			r.Get("/dataset/preview", s.previewDataset)
			r.Get("/dataset/matrix", s.previewMatrix)
			r.Get("/dataset/columns/{name}/distribution", s.columnDistribution)

			r.Post("/mine", s.mine)
			r.Get("/itemsets", s.listItemsets)
			r.Get("/rules", s.listRules)
			r.Get("/recommendations", s.recommendations)
			r.Get("/graph", s.ruleGraph)

			r.Get("/charts/itemsets.png", s.chartItemsets)
			r.Get("/charts/rules.png", s.chartRules)
			r.Get("/charts/columns/{name}.png", s.chartColumn)
		})
	})

	// Serve the embedded dashboard, with SPA fallback to index.html.
	staticFS, err := web.DistFS()
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServer(staticFS)
	s.router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path != "/" {
			if f, err := staticFS.Open(path); err == nil {
				_ = f.Close()
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		serveIndex(w, r, staticFS)
	})

	s.server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.router,
	}

	return s, nil
}

// serveIndex writes the embedded index.html.
func serveIndex(w http.ResponseWriter, r *http.Request, staticFS http.FileSystem) {
	f, err := staticFS.Open("/index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "index.html", stat.ModTime(), f)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with the taxonomy code.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}

// respondPipelineError maps pipeline errors onto status codes. Schema and
// parameter errors are user-correctable (422); missing state means the user
// skipped a step (409); anything else is a server error. The session always
// stays usable afterwards.
func respondPipelineError(w http.ResponseWriter, err error) {
	var schemaErr *models.SchemaError
	var paramErr *models.InvalidParameterError
	switch {
	case errors.As(err, &schemaErr):
		respondError(w, http.StatusUnprocessableEntity, "SchemaError", schemaErr.Error())
	case errors.As(err, &paramErr):
		respondError(w, http.StatusUnprocessableEntity, "InvalidParameterError", paramErr.Error())
	case errors.Is(err, models.ErrNoDataset):
		respondError(w, http.StatusConflict, "NoDataset", "upload a dataset first")
	case errors.Is(err, models.ErrNoResults):
		respondError(w, http.StatusConflict, "NoResults", "run mining first")
	default:
		respondError(w, http.StatusInternalServerError, "InternalError", err.Error())
	}
}
