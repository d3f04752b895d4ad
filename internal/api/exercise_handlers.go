package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
)

type timerCommand func(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error)

// timerHandler serves a command on the {exercise} URL parameter.
func (s *Server) timerHandler(cmd timerCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := cmd(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "exercise"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, snap)
	}
}

type switchIntervalRequest struct {
	Seconds *int `json:"seconds"`
}

func (s *Server) handleSetSwitchInterval(w http.ResponseWriter, r *http.Request) {
	var req switchIntervalRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Seconds == nil {
		handleError(w, r, errors.NewValidationError("seconds", "is required"))
		return
	}

	snap, err := s.Tutorial.SetSwitchSeconds(r.Context(), sessionIDFromContext(r.Context()), *req.Seconds)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

type submitAnswerRequest struct {
	AnswerID string `json:"answer_id"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.AnswerID == "" {
		handleError(w, r, errors.NewValidationError("answer_id", "is required"))
		return
	}

	result, err := s.Tutorial.SubmitAnswer(r.Context(), sessionIDFromContext(r.Context()), req.AnswerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("answer %s judged correct=%t", req.AnswerID, result.Correct)
	writeJSON(w, r, http.StatusOK, result)
}
