package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Deadlines.Overdue(r.Context(), r.URL.Query().Get("userId"), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := 0
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, badRequest("days must be a non-negative integer"))
			return
		}
		days = n
	}

	out, err := s.svc.Deadlines.Upcoming(r.Context(), q.Get("userId"), days, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeadlineStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Deadlines.Stats(r.Context(), r.URL.Query().Get("userId"), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("startDate") == "" || q.Get("endDate") == "" {
		s.fail(w, r, badRequest("startDate and endDate are required"))
		return
	}
	start, err := parseTime("startDate", q.Get("startDate"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := parseTime("endDate", q.Get("endDate"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := s.svc.Deadlines.Calendar(r.Context(), q.Get("userId"), start, end, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type extensionRequestBody struct {
	NewDeadline string `json:"newDeadline"`
	Reason      string `json:"reason"`
	UserID      string `json:"userId"`
}

func (s *Server) handleRequestExtension(kind workitem.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body extensionRequestBody
		if err := decodeJSON(r, &body); err != nil {
			s.fail(w, r, err)
			return
		}
		newDeadline, err := optionalTime("newDeadline", body.NewDeadline)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		req, err := s.svc.Extensions.Request(r.Context(), extension.RequestInput{
			ItemKind:    kind,
			ItemID:      chi.URLParam(r, "id"),
			RequestedBy: body.UserID,
			NewDeadline: newDeadline,
			Reason:      body.Reason,
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	}
}

func itemKindParam(r *http.Request) (workitem.Kind, error) {
	kind, ok := workitem.ParseKind(chi.URLParam(r, "itemType"))
	if !ok {
		return "", badRequest("item type must be tasks or projects")
	}
	return kind, nil
}

func (s *Server) handleListExtensions(w http.ResponseWriter, r *http.Request) {
	kind, err := itemKindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.svc.Extensions.List(r.Context(), kind, chi.URLParam(r, "itemId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extensions": list})
}

type reviewBody struct {
	Status     string `json:"status"`
	ReviewerID string `json:"reviewerId"`
}

func (s *Server) handleReviewExtension(w http.ResponseWriter, r *http.Request) {
	kind, err := itemKindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	req, err := s.svc.Extensions.Review(r.Context(), extension.ReviewInput{
		ItemKind:   kind,
		ItemID:     chi.URLParam(r, "itemId"),
		RequestID:  chi.URLParam(r, "extensionId"),
		Decision:   extension.Status(body.Status),
		ReviewerID: body.ReviewerID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type milestoneBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

func (s *Server) handleAddMilestone(w http.ResponseWriter, r *http.Request) {
	var body milestoneBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	due, err := optionalTime("dueDate", body.DueDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	m, err := s.svc.Milestones.Add(r.Context(), milestone.AddInput{
		ProjectID:   chi.URLParam(r, "id"),
		Title:       body.Title,
		Description: body.Description,
		DueDate:     due,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Milestones.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": list})
}

func (s *Server) handleCompleteMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Milestones.Complete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "milestoneId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
