// Package httpapi wires the HTTP surface of the chrono course API.
// It keeps handlers thin, delegating window selection to the participants service.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/chrono/internal/config"
	"github.com/tinoosan/chrono/internal/service/participants"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	svc    participants.Service
	cfg    *config.Config
	ready  ReadyChecker
	docs   *apiDocs
	prefix string
	log    *slog.Logger
	rt     *chi.Mux
}

// New constructs the HTTP server with routes and middleware. ready may be nil
// when the dataset source has no connection to check.
func New(svc participants.Service, cfg *config.Config, ready ReadyChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	// Outside recoverer so recovered panics are counted as 500s.
	r.Use(metricsMiddleware)
	r.Use(recoverer(logger))
	r.Use(corsHandler())
	r.Use(noCache)
	r.Use(chimw.StripSlashes)

	s := &Server{
		svc:    svc,
		cfg:    cfg,
		ready:  ready,
		prefix: cfg.URLPrefix,
		rt:     r,
		log:    logger,
	}
	docs, err := newAPIDocs(s.basePath())
	if err != nil {
		logger.Error("openapi document rejected", "err", err)
	}
	s.docs = docs
	datasetRecords.Set(float64(svc.Size()))
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) basePath() string {
	if s.prefix == "" {
		return "/"
	}
	return "/" + s.prefix
}

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Must precede Route so the prefixed subrouter inherits them.
	s.rt.NotFound(s.notFound)
	s.rt.MethodNotAllowed(s.methodNotAllowed)

	api := func(r chi.Router) {
		r.Get("/", s.base)
		r.Get("/heartbeat", s.heartbeat)
		r.Get("/supervision", s.supervision)
		r.Get("/smokeTest", s.smokeTest)
		r.Get("/participants", s.getParticipants)
		r.Post("/participants", s.postParticipant)
		// Swagger UI and the OpenAPI document
		r.Get("/doc", s.swaggerUI)
		r.Get("/doc/openapi.json", s.openapiJSON)
		r.Get("/doc/openapi.yaml", s.openapiYAML)
	}
	if s.prefix == "" {
		api(s.rt)
	} else {
		s.rt.Route("/"+s.prefix, api)
	}

	// Unprefixed probes and metrics
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
