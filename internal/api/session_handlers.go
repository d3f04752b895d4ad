package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.Tutorial.CreateSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	setSessionCookie(w, st.SessionID)
	w.Header().Set(sessionHeaderName, st.SessionID)
	writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.Tutorial.GetState(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromContext(r.Context())
	if err := s.Tutorial.DeleteSession(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("session deleted")
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type stateCommand func(ctx context.Context, sessionID string) (models.SessionState, error)

// stateHandler serves a session command that takes no arguments.
func (s *Server) stateHandler(cmd stateCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cmd(r.Context(), sessionIDFromContext(r.Context()))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, st)
	}
}

type lessonCommand func(ctx context.Context, sessionID, lesson string) (models.SessionState, error)

// lessonHandler serves a command on the {lesson} URL parameter.
func (s *Server) lessonHandler(cmd lessonCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cmd(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "lesson"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, st)
	}
}
