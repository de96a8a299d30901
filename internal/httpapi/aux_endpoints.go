package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/tinoosan/chrono/internal/smoke"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		if err := s.ready.Ready(ctx); err != nil {
			s.log.Warn("readiness check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// GET /{prefix}/
func (s *Server) base(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, messageResponse{StatusCode: http.StatusOK, Message: "Api chrono course"})
}

// GET /{prefix}/heartbeat
func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, messageResponse{StatusCode: http.StatusOK, Message: "Heartbeat"})
}

// GET /{prefix}/supervision echoes the loaded configuration.
func (s *Server) supervision(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeErr(w, http.StatusInternalServerError, "Can't get the configuration", "internal_error")
		return
	}
	toJSON(w, http.StatusOK, s.cfg.Echo())
}

// GET /{prefix}/smokeTest
func (s *Server) smokeTest(w http.ResponseWriter, r *http.Request) {
	rep := smoke.Run(smoke.Check{
		Suite: "Model Tests",
		Run: func() []smoke.Case {
			return []smoke.Case{smoke.ModelExistence("participants", s.svc.Loaded())}
		},
	})
	toJSON(w, http.StatusOK, rep)
}
