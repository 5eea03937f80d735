package server

import (
	"net/http"
	"strconv"

	"fintrack/application/dto"
	"fintrack/domain"
	"fintrack/domain/interfaces"
)

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var filter interfaces.ScheduleFilter
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, domain.NewValidationError("active", "must be true or false, got %q", raw))
			return
		}
		filter.Active = &active
	}

	schedules, err := s.cfg.Schedules.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]dto.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		resp = append(resp, dto.NewScheduleResponse(schedule))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	schedule, err := s.cfg.Schedules.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewScheduleResponse(schedule))
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	schedule, err := s.cfg.Schedules.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.UpdateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	schedule, err := s.cfg.Schedules.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Schedules.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecuteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.cfg.Schedules.ExecuteNow(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewExecutionResponse(result))
}
