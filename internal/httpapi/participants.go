package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tinoosan/chrono/internal/window"
)

// GET /{prefix}/participants?course=
func (s *Server) getParticipants(w http.ResponseWriter, r *http.Request) {
	course := window.DefaultKey
	if q := r.URL.Query(); q.Has("course") {
		course = q.Get("course")
	}
	sel := s.svc.Window(r.Context(), course)
	participantWindowRecords.Observe(float64(len(sel.Records)))
	s.log.Debug("participants window", "course", sel.Key, "offset", sel.Offset, "size", sel.Size, "returned", len(sel.Records))
	toJSON(w, http.StatusOK, participantsResponse{
		Course:         sel.Key,
		NbParticipants: sel.Size,
		Participants:   sel.Records,
	})
}

// POST /{prefix}/participants acknowledges the payload without storing it.
func (s *Server) postParticipant(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	toJSON(w, http.StatusOK, s.svc.Create(r.Context(), req.Raw))
}
