package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/visionize/internal/content"
	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/services"
	"github.com/vytor/visionize/internal/sse"
)

// Pinger is the readiness dependency; *db.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	DB       Pinger
	Content  *content.Provider
	Tutorial services.TutorialService
	History  services.HistoryService
	Hub      *sse.Hub
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"lessons": s.Content.AllLessonContent(),
	})
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := strings.ToLower(chi.URLParam(r, "lesson"))

	lesson, err := s.Content.Lesson(models.Lesson(id))
	if err != nil {
		log.Debug("lesson lookup failed: %v", err)
		handleError(w, r, errors.NewNotFoundError("lesson", id))
		return
	}
	writeJSON(w, r, http.StatusOK, lesson)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"questions": s.Content.AllQuestionContent(),
	})
}
