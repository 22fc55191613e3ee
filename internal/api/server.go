package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/jobportals/internal/observability"
	"github.com/baxromumarov/jobportals/internal/scraper"
	"github.com/baxromumarov/jobportals/internal/store"
)

// searchTimeout bounds a synchronous POST /search. A full five-portal run at
// the default page budget stays well below it.
const searchTimeout = 10 * time.Minute

type Searcher interface {
	Portals() []string
	Search(ctx context.Context, q scraper.Query, sink scraper.Sink) ([]scraper.Job, map[string]scraper.Diagnostics, error)
}

type JobStore interface {
	SaveSearch(ctx context.Context, name string, q scraper.Query, jobs []scraper.Job, diags map[string]scraper.Diagnostics) (int64, error)
	GetJobs(ctx context.Context, portal string, limit, offset int) ([]store.Job, error)
	GetSearch(ctx context.Context, id int64) (*store.Search, error)
}

type Server struct {
	router   *chi.Mux
	searcher Searcher
	store    JobStore
	stats    *observability.Stats
	maxPages int
	logger   *slog.Logger
	now      func() time.Time
}

// NewServer builds the HTTP API. js may be nil; the job history routes then answer 503.
func NewServer(searcher Searcher, js JobStore, stats *observability.Stats, maxPages int, logger *slog.Logger) *Server {
	if stats == nil {
		stats = observability.NewStats()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:   chi.NewRouter(),
		searcher: searcher,
		store:    js,
		stats:    stats,
		maxPages: maxPages,
		logger:   logger,
		now:      time.Now,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Content-Type"},
		ExposedHeaders:     []string{"Content-Disposition"},
		OptionsPassthrough: false,
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/portals", s.handleListPortals)
	s.router.Post("/search", s.handleSearch)
	s.router.Get("/searches/{id}", s.handleGetSearch)
	s.router.Get("/jobs", s.handleListJobs)
	s.router.Get("/stats", s.handleStats)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
