package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

const defaultDocumentLimit = 50

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.healthHandler)
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/documents", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{"GET": s.listDocumentsHandler})
	})
	mux.HandleFunc("/api/documents/stats", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{"GET": s.documentStatsHandler})
	})

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
	})
}

// listDocumentsHandler returns the most recent ledger records
func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultDocumentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	docs, err := s.storage.DocumentStorage().ListDocuments(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list ledger records")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(docs),
		"documents": docs,
	})
}

// documentStatsHandler returns processed/failed/pending counts
func (s *Server) documentStatsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := s.storage.DocumentStorage().ListDocuments(r.Context(), 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read ledger for stats")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stats := map[models.DocumentStatus]int{}
	for _, doc := range docs {
		stats[doc.Status]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(docs),
		"processed": stats[models.DocumentStatusProcessed],
		"failed":    stats[models.DocumentStatusFailed],
		"pending":   stats[models.DocumentStatusPending],
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
