package web

import "net/http"

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	items, err := s.history.ListByUser(r.Context(), userID, s.historyLimit)
	if err != nil {
		s.logger.Error("failed to list history", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := s.history.ClearUser(r.Context(), userID); err != nil {
		s.logger.Error("failed to clear history", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
