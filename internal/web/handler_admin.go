package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teuglobal/htspilot/internal/prompt"
	"github.com/teuglobal/htspilot/internal/store"
)

type promptsResponse struct {
	ClassificationPrompt string `json:"classificationPrompt"`
	LookupPrompt         string `json:"lookupPrompt"`
	Temperature          string `json:"temperature"`
	AssistantBehavior    string `json:"aiBehavior"`
}

func (s *Server) handleGetPrompts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := promptsResponse{}
	var err error
	if resp.ClassificationPrompt, err = s.settings.Get(ctx, store.KeyClassificationPrompt, prompt.DefaultClassificationTemplate); err != nil {
		s.logger.Error("failed to load setting", "key", store.KeyClassificationPrompt, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if resp.LookupPrompt, err = s.settings.Get(ctx, store.KeyLookupPrompt, prompt.DefaultLookupTemplate); err != nil {
		s.logger.Error("failed to load setting", "key", store.KeyLookupPrompt, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if resp.Temperature, err = s.settings.Get(ctx, store.KeyTemperature, ""); err != nil {
		s.logger.Error("failed to load setting", "key", store.KeyTemperature, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if resp.AssistantBehavior, err = s.settings.Get(ctx, store.KeyAssistantBehavior, ""); err != nil {
		s.logger.Error("failed to load setting", "key", store.KeyAssistantBehavior, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleUpdatePrompts persists any of the tunable settings present in the
// request body. Absent fields are left untouched.
func (s *Server) handleUpdatePrompts(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	allowed := map[string]string{
		"classificationPrompt": store.KeyClassificationPrompt,
		"lookupPrompt":         store.KeyLookupPrompt,
		"temperature":          store.KeyTemperature,
		"aiBehavior":           store.KeyAssistantBehavior,
	}
	for field, value := range req {
		key, ok := allowed[field]
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown setting "+field)
			return
		}
		if err := s.settings.Set(r.Context(), key, value); err != nil {
			s.logger.Error("failed to store setting", "key", key, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to store settings")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDenylist(w http.ResponseWriter, r *http.Request) {
	codes, err := s.denylist.Codes(r.Context())
	if err != nil {
		s.logger.Error("failed to list denylist", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list denylist")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"codes": codes})
}

func (s *Server) handleAddDenylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, err := s.denylist.Add(r.Context(), req.Code)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	s.writeJSON(w, status, map[string]any{"code": strings.TrimSpace(req.Code), "added": added})
}

func (s *Server) handleRemoveDenylist(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := s.denylist.Remove(r.Context(), code); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
