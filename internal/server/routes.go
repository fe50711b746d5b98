package server

import (
	"net/http"
)

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)
	if s.bus != nil {
		r.Get("/events", s.activityEvents)
	}

	// The Netlify path keeps existing frontends working unchanged.
	r.Post("/chat", s.handleChat)
	r.Post("/.netlify/functions/chat", s.handleChat)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
