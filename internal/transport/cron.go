package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCronStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Jobs.Status())
}

// handleRunJob runs a job synchronously and reports once it finishes.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.svc.Jobs.Trigger(r.Context(), name); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "completed"})
}
