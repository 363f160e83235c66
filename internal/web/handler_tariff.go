package web

import (
	"net/http"
	"strconv"
	"time"
)

func (s *Server) handleTariffDetails(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	year := r.URL.Query().Get("year")
	if year == "" {
		year = strconv.Itoa(time.Now().UTC().Year())
	}
	details, err := s.tariff.CurrentTariffDetails(r.Context(), year, code)
	if err != nil {
		s.logger.Error("failed to fetch tariff details", "code", code, "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to fetch tariff details")
		return
	}
	s.writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleTariffSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	results, err := s.tariff.SearchCodes(r.Context(), query)
	if err != nil {
		s.logger.Error("failed to search tariff codes", "query", query, "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to search tariff codes")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
