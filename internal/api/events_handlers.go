package api

import (
	"net/http"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/sse"
)

// handleEvents streams state frames of the session until the client leaves or
// the session closes. The first frame is the current state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := sessionIDFromContext(r.Context())

	client := s.Hub.Subscribe(id)
	defer s.Hub.Unsubscribe(client)

	st, err := s.Tutorial.GetState(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	client.Send(sse.Message{Channel: id, Event: sse.EventState, Data: st})

	log.Debug("event stream opened: client=%s", client.ID)
	s.Hub.Serve(w, r, client)
	log.Debug("event stream closed: client=%s", client.ID)
}
