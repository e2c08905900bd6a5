// Package server implements the cartoflow HTTP API.
//
// The API is a thin shell over [pipeline.Runner] and [store.Store]:
//
//	POST /api/layout        run layout over inline flow data
//	GET  /api/layouts       list stored layout documents
//	GET  /api/layouts/{id}  fetch one stored layout
//	PUT  /api/layouts/{id}  replace a stored layout's payload
//	GET  /health            liveness probe
//
// Requests are tagged with a UUID request ID, echoed in the X-Request-ID
// header and attached to every log line for the request.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cartoflow/cartoflow/pkg/pipeline"
	"github.com/cartoflow/cartoflow/pkg/store"
)

// Server holds the API's collaborators.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// New creates a server. A nil store disables the /api/layouts routes
// with 501 responses; a nil logger falls back to log.Default().
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Routes builds the router with all middleware and endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleListLayouts)
			r.Get("/{id}", s.handleGetLayout)
			r.Put("/{id}", s.handlePutLayout)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
