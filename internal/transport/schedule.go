package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/duetrack/internal/domain/availability"
)

type scheduleBody struct {
	WorkDays  []string `json:"workDays"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Timezone  string   `json:"timezone"`
}

type vacationBody struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Schedules.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var body scheduleBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.svc.Schedules.UpdateSchedule(r.Context(), chi.URLParam(r, "id"), availability.ScheduleInput{
		WorkDays:  body.WorkDays,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Timezone:  body.Timezone,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRequestVacation(w http.ResponseWriter, r *http.Request) {
	var body vacationBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	start, err := optionalTime("startDate", body.StartDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := optionalTime("endDate", body.EndDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	period, err := s.svc.Schedules.RequestVacation(r.Context(), chi.URLParam(r, "id"), availability.VacationInput{
		StartDate: start,
		EndDate:   end,
		Reason:    body.Reason,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (s *Server) handleUserWorkload(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Workload.UserWorkload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTeamAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := optionalTime("startDate", q.Get("startDate"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := optionalTime("endDate", q.Get("endDate"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := s.svc.Schedules.TeamAvailability(r.Context(), availability.TeamQuery{
		ProjectID: q.Get("projectId"),
		Start:     start,
		End:       end,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teamAvailability": out})
}

func (s *Server) handleTeamWorkload(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Workload.TeamWorkload(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workload": out})
}
