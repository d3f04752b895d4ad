package api

import (
	"net/http"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	page, perPage := pagination(r)

	filter := models.ActivityFilter{
		SessionID: sessionIDFromContext(r.Context()),
		Kind:      models.ActivityKind(r.URL.Query().Get("kind")),
		Lesson:    r.URL.Query().Get("lesson"),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}
	log = log.WithFields(map[string]any{
		"page":     page,
		"per_page": perPage,
	})
	log.Debug("fetching activity history")

	activities, totalCount, err := s.History.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"activities":  activities,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages(totalCount, perPage),
		"total_count": totalCount,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.History.Stats(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
