package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with panic recovery, request logging and a /health endpoint,
// then mounts every handler. Extra middleware runs after logging, in the order given.
func NewRouter(logger *log.Logger, extra []Middleware, handlers ...Handler) chi.Router {
	if logger == nil {
		logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	for _, mw := range extra {
		r.Use(mw)
	}

	r.Get("/health", handleHealth)
	for _, h := range handlers {
		h.Routes(r)
	}
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "maestro",
	})
}
