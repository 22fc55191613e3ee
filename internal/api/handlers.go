package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baxromumarov/jobportals/internal/export"
	"github.com/baxromumarov/jobportals/internal/observability"
	"github.com/baxromumarov/jobportals/internal/scraper"
	"github.com/baxromumarov/jobportals/internal/store"
)

type SearchRequest struct {
	scraper.Query
	// Name labels the stored search; defaults to "<keywords> in <location>".
	Name string `json:"name"`
}

type SearchResponse struct {
	SearchID    int64                          `json:"search_id,omitempty"`
	Query       scraper.Query                  `json:"query"`
	Total       int                            `json:"total"`
	Jobs        []scraper.Job                  `json:"jobs"`
	Diagnostics map[string]scraper.Diagnostics `json:"diagnostics"`
	Stats       observability.StatsSnapshot    `json:"stats"`
}

func (s *Server) handleListPortals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"portals":  s.searcher.Portals(),
		"defaults": scraper.DefaultPortals,
	})
}

// handleSearch runs one synchronous search. ?format=csv streams the jobs as a CSV attachment.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		respondError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	q := req.Query.WithDefaults(s.maxPages)

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	run := observability.NewStats()
	jobs, diags, err := s.searcher.Search(ctx, q, run)
	s.stats.Merge(run)
	if errors.Is(err, scraper.ErrInvalidQuery) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Search failed: "+err.Error())
		return
	}
	if jobs == nil {
		jobs = []scraper.Job{}
	}

	var searchID int64
	if s.store != nil {
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("%s in %s", q.Keywords, q.Location)
		}
		searchID, err = s.store.SaveSearch(ctx, name, q, jobs, diags)
		if err != nil {
			// Results are still returned; only history is lost.
			s.stats.IncError(observability.ErrorStore, "api")
			s.logger.Error("failed to store search", "error", err)
		}
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now())))
		w.WriteHeader(http.StatusOK)
		if err := export.WriteJobs(w, jobs); err != nil {
			s.logger.Error("failed to write csv", "error", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		SearchID:    searchID,
		Query:       q,
		Total:       len(jobs),
		Jobs:        jobs,
		Diagnostics: diags,
		Stats:       run.Snapshot(),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Job history requires a database")
		return
	}
	limit, offset := parsePagination(r, 20)
	portal := r.URL.Query().Get("portal")

	jobs, err := s.store.GetJobs(r.Context(), portal, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs: "+err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items":  jobs,
		"limit":  limit,
		"offset": offset,
		"portal": portal,
	})
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Search history requires a database")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid search ID")
		return
	}

	search, err := s.store.GetSearch(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Search not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch search: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, search)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.stats.Snapshot())
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
