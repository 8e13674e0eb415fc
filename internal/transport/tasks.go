package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type assignBody struct {
	UserID string `json:"userId"`
}

type bulkAssignBody struct {
	TaskIDs    []string `json:"taskIds"`
	AssignedTo string   `json:"assignedTo"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	task, err := s.svc.Assignments.Assign(r.Context(), chi.URLParam(r, "id"), body.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	var body bulkAssignBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	tasks, err := s.svc.Assignments.BulkAssign(r.Context(), body.TaskIDs, body.AssignedTo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":         tasks,
		"assignedCount": len(tasks),
	})
}
