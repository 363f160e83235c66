package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/teuglobal/htspilot/internal/domain"
	"github.com/teuglobal/htspilot/internal/service"
)

type queryRequest struct {
	Kind            string `json:"kind"`
	Description     string `json:"description"`
	CountryOfOrigin string `json:"countryOfOrigin"`
	Code            string `json:"code"`
	ImageMimeType   string `json:"imageMimeType"`
	ImageData       string `json:"imageData"` // base64
	UserID          string `json:"userId"`
	UserEmail       string `json:"userEmail"`
}

func (r queryRequest) toQuery() (domain.Query, error) {
	q := domain.Query{
		Kind:            domain.QueryKind(r.Kind),
		Description:     r.Description,
		CountryOfOrigin: r.CountryOfOrigin,
		Code:            r.Code,
	}
	switch q.Kind {
	case domain.KindClassification, domain.KindLookup:
	default:
		return q, fmt.Errorf("unknown query kind %q", r.Kind)
	}
	if r.ImageData != "" {
		data, err := base64.StdEncoding.DecodeString(r.ImageData)
		if err != nil {
			return q, fmt.Errorf("invalid image data: %w", err)
		}
		mime := r.ImageMimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		q.Image = &domain.Image{MimeType: mime, Data: data}
	}
	return q, nil
}

// handleSubmitQuery runs a query and streams progress back as server-sent
// events: a "message" event with the new assistant message ID, "chunk"
// events as response text arrives, then exactly one terminal event
// ("analysis", "done", "cancelled", or "error").
func (s *Server) handleSubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := req.toQuery()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := service.User{ID: req.UserID, Email: req.UserEmail}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to marshal event", "event", event, "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	outcome, err := s.query.Submit(r.Context(), user, q, func(ev service.Event) {
		send(ev.Type, map[string]string{
			"messageId": ev.MessageID,
			"text":      ev.Text,
		})
	})
	if err != nil {
		// Submit failed before any event was emitted, so the response
		// is still plain JSON.
		switch {
		case errors.Is(err, service.ErrBusy):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrEmptyQuery), errors.Is(err, service.ErrInvalidCode):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("failed to submit query", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to submit query")
		}
		return
	}

	switch outcome.State {
	case service.StateFailed:
		send("error", map[string]string{
			"messageId": outcome.Message.ID,
			"error":     outcome.ErrorMessage,
			"text":      outcome.Message.Text,
		})
	case service.StateCancelled:
		send("cancelled", map[string]string{
			"messageId": outcome.Message.ID,
			"text":      outcome.Message.Text,
		})
	default:
		if outcome.Analysis != nil {
			send("analysis", map[string]any{
				"messageId": outcome.Message.ID,
				"text":      outcome.Message.Text,
				"analysis":  outcome.Analysis,
			})
		}
		send("done", map[string]string{
			"messageId": outcome.Message.ID,
			"text":      outcome.Message.Text,
		})
	}
}

func (s *Server) handleCancelQuery(w http.ResponseWriter, r *http.Request) {
	s.query.Cancel()
	s.writeJSON(w, http.StatusOK, map[string]string{"state": string(s.query.State())})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, ok := s.query.Analysis(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no analysis for message")
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, ok := s.query.Analysis(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no analysis for message")
		return
	}
	summary, err := s.query.Summarize(r.Context(), data)
	if err != nil {
		s.logger.Error("failed to summarize analysis", "message_id", id, "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to summarize analysis")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
