package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 10 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(requestTimeout))
			r.Get("/lessons", s.handleLessons)
			r.Get("/lessons/{lesson}", s.handleLesson)
			r.Get("/questions", s.handleQuestions)
			r.Post("/sessions", s.handleCreateSession)
		})

		r.Route("/session", func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Get("/events", s.handleEvents)

			r.Group(func(r chi.Router) {
				r.Use(timeoutMiddleware(requestTimeout))
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/history", s.handleHistory)
				r.Get("/stats", s.handleStats)

				r.Post("/lessons/next", s.stateHandler(s.Tutorial.NextLesson))
				r.Post("/lessons/previous", s.stateHandler(s.Tutorial.PreviousLesson))
				r.Post("/lessons/{lesson}/select", s.lessonHandler(s.Tutorial.SelectLesson))
				r.Post("/lessons/{lesson}/finish", s.lessonHandler(s.Tutorial.FinishLesson))
				r.Post("/lessons/{lesson}/continue", s.lessonHandler(s.Tutorial.ContinueLesson))
				r.Post("/lessons/{lesson}/reset", s.lessonHandler(s.Tutorial.ResetLesson))
				r.Post("/progress/reset", s.stateHandler(s.Tutorial.ResetProgress))

				r.Put("/timers/focus-shifting/interval", s.handleSetSwitchInterval)
				r.Post("/timers/{exercise}/start", s.timerHandler(s.Tutorial.StartTimer))
				r.Post("/timers/{exercise}/stop", s.timerHandler(s.Tutorial.StopTimer))
				r.Post("/timers/{exercise}/reset", s.timerHandler(s.Tutorial.ResetTimer))

				r.Post("/quiz/answers", s.handleSubmitAnswer)
				r.Post("/quiz/next", s.stateHandler(s.Tutorial.NextQuestion))
				r.Post("/quiz/reset", s.stateHandler(s.Tutorial.ResetQuiz))
			})
		})
	})

	return r
}
