package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleAccountForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", s.cfg.ForecastDefaultDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	forecast, err := s.cfg.Forecasts.ForecastAccount(r.Context(), id, days, s.cfg.Clock())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleAccountForecastChart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", s.cfg.ForecastDefaultDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	forecast, err := s.cfg.Forecasts.ForecastAccount(r.Context(), id, days, s.cfg.Clock())
	if err != nil {
		writeError(w, r, err)
		return
	}

	png, err := RenderForecastChart(forecast)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleNetWorthTrend(w http.ResponseWriter, r *http.Request) {
	periods, err := queryInt(r, "periods", s.cfg.TrendDefaultPeriods)
	if err != nil {
		writeError(w, r, err)
		return
	}
	steps, err := queryInt(r, "steps", s.cfg.TrendProjectionSteps)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.cfg.Forecasts.NetWorthTrend(r.Context(), periods, steps)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
