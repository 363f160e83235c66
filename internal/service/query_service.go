// Package service drives a query from user submission to a terminal
// message: build the prompt, stream the completion into a live assistant
// message, split off the structured analysis, and finalize.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/teuglobal/htspilot/internal/analysis"
	"github.com/teuglobal/htspilot/internal/completion"
	"github.com/teuglobal/htspilot/internal/domain"
	"github.com/teuglobal/htspilot/internal/prompt"
)

// State is the orchestrator's position in the query lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateBuilding   State = "building"
	StateStreaming  State = "streaming"
	StateExtracting State = "extracting"
	StateFinalized  State = "finalized"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Validation failures. These are local: an invalid submission never reaches
// the completion backend or any store.
var (
	ErrEmptyQuery  = errors.New("query has no content")
	ErrInvalidCode = errors.New("not a valid HTS code")
	ErrBusy        = errors.New("a query is already in flight")
)

// DefaultTemperature is used when the admin has not tuned one.
const DefaultTemperature float32 = 0.7

// User identifies the requester for history attribution.
type User struct {
	ID    string
	Email string
}

// Event is a progress notification delivered to the presentation layer
// while a submission runs.
type Event struct {
	Type      string // "message", "chunk"
	MessageID string
	Text      string
}

// EventFunc receives events synchronously, in order. It must not block for
// long: chunk application waits on it.
type EventFunc func(Event)

// Outcome is the terminal result of a submission. Message is the finalized
// (or partially streamed, for cancellations) assistant message. Analysis is
// non-nil only when a structured payload parsed cleanly. ErrorMessage is set
// for transport failures.
type Outcome struct {
	State        State
	Message      domain.Message
	Analysis     *domain.AnalysisData
	ErrorMessage string
}

// denylistRepository is the subset of store.DenylistStore the service needs.
type denylistRepository interface {
	Codes(ctx context.Context) ([]string, error)
}

// settingsRepository is the subset of store.SettingsStore the service needs.
type settingsRepository interface {
	Get(ctx context.Context, key, defaultVal string) (string, error)
}

// historyRepository is the subset of store.HistoryStore the service needs.
type historyRepository interface {
	Append(ctx context.Context, query, userID, userEmail string, viewType domain.QueryKind) (*domain.HistoryItem, error)
}

// Setting keys read from the settings repository. They mirror the store
// package constants; redeclared here to keep the dependency interface thin.
const (
	keyClassificationPrompt = "classificationPrompt"
	keyLookupPrompt         = "lookupPrompt"
	keyTemperature          = "temperature"
)

// QueryService owns the in-flight assistant message and the analysis results
// keyed by message identity. At most one query runs at a time; concurrent
// submissions are rejected at the validation gate.
type QueryService struct {
	streamer completion.Streamer
	denylist denylistRepository
	settings settingsRepository
	history  historyRepository
	logger   *slog.Logger

	inFlight atomic.Bool
	state    atomic.Value // State

	mu       sync.Mutex
	cancel   context.CancelFunc
	analyses map[string]*domain.AnalysisData
}

func NewQueryService(
	streamer completion.Streamer,
	denylist denylistRepository,
	settings settingsRepository,
	history historyRepository,
	logger *slog.Logger,
) *QueryService {
	s := &QueryService{
		streamer: streamer,
		denylist: denylist,
		settings: settings,
		history:  history,
		logger:   logger,
		analyses: make(map[string]*domain.AnalysisData),
	}
	s.state.Store(StateIdle)
	return s
}

// State returns the orchestrator's current lifecycle position.
func (s *QueryService) State() State {
	return s.state.Load().(State)
}

// Analysis returns the structured payload recorded for a message, if any.
func (s *QueryService) Analysis(messageID string) (*domain.AnalysisData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.analyses[messageID]
	return data, ok
}

// Cancel aborts the in-flight stream, if any. Chunks already applied stay;
// the submission settles as cancelled, not failed.
func (s *QueryService) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit runs one query to a terminal state. Validation problems are
// returned as errors and leave the service idle; everything after the
// validation gate resolves to an Outcome, never an error: transport
// failures and cancellations are terminal message states, not failures of
// Submit itself.
func (s *QueryService) Submit(ctx context.Context, user User, q domain.Query, onEvent EventFunc) (*Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer func() {
		s.inFlight.Store(false)
		s.state.Store(StateIdle)
	}()

	if err := validate(q); err != nil {
		return nil, err
	}

	s.state.Store(StateBuilding)
	req, err := s.buildRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	msg := domain.Message{ID: uuid.NewString(), Role: domain.RoleAssistant}
	emit(onEvent, Event{Type: "message", MessageID: msg.ID})

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.setCancel(cancel)
	defer s.setCancel(nil)

	s.state.Store(StateStreaming)
	s.logger.Info("query streaming started", "message_id", msg.ID, "kind", q.Kind)

	full, err := s.streamer.Stream(streamCtx, *req, func(chunk string) {
		msg.Text += chunk
		emit(onEvent, Event{Type: "chunk", MessageID: msg.ID, Text: chunk})
	})
	if err != nil {
		return s.settleError(msg, err), nil
	}

	s.state.Store(StateExtracting)
	return s.finalize(ctx, user, q, msg, full), nil
}

// buildRequest assembles the completion request from the stored template,
// the current denylist snapshot, and the query.
func (s *QueryService) buildRequest(ctx context.Context, q domain.Query) (*completion.Request, error) {
	codes, err := s.denylist.Codes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load denylist: %w", err)
	}

	templateKey, templateDefault := keyClassificationPrompt, prompt.DefaultClassificationTemplate
	if q.Kind == domain.KindLookup {
		templateKey, templateDefault = keyLookupPrompt, prompt.DefaultLookupTemplate
	}
	template, err := s.settings.Get(ctx, templateKey, templateDefault)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	return &completion.Request{
		Prompt:      prompt.Build(template, q, codes),
		Image:       q.Image,
		Temperature: s.temperature(ctx),
	}, nil
}

func (s *QueryService) temperature(ctx context.Context) float32 {
	raw, err := s.settings.Get(ctx, keyTemperature, "")
	if err != nil || raw == "" {
		return DefaultTemperature
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil || v < 0 || v > 2 {
		s.logger.Warn("ignoring invalid temperature setting", "value", raw)
		return DefaultTemperature
	}
	return float32(v)
}

// settleError maps a streaming failure to its terminal state. Cancellation
// keeps the partial text untouched; any other error overwrites the message
// with a visible indicator.
func (s *QueryService) settleError(msg domain.Message, err error) *Outcome {
	if errors.Is(err, completion.ErrCancelled) {
		s.state.Store(StateCancelled)
		s.logger.Info("query cancelled", "message_id", msg.ID, "partial_bytes", len(msg.Text))
		return &Outcome{State: StateCancelled, Message: msg}
	}

	s.state.Store(StateFailed)
	errMsg := err.Error()
	var terr *completion.TransportError
	if errors.As(err, &terr) {
		errMsg = terr.Message
	}
	s.logger.Error("query failed", "message_id", msg.ID, "error", err)
	msg.Text = "Error: " + errMsg
	return &Outcome{State: StateFailed, Message: msg, ErrorMessage: errMsg}
}

// finalize runs the extractor once over the settled text, truncates the
// message to the visible narrative, and records the analysis and history
// when a payload parsed. A malformed payload is logged and otherwise
// invisible: the narrative still finalizes.
func (s *QueryService) finalize(ctx context.Context, user User, q domain.Query, msg domain.Message, full string) *Outcome {
	res := analysis.Extract(full)
	msg.Text = res.VisibleText

	if res.Err != nil {
		s.logger.Warn("analysis payload unusable", "message_id", msg.ID, "error", res.Err)
	}

	if res.Data != nil {
		s.mu.Lock()
		s.analyses[msg.ID] = res.Data
		s.mu.Unlock()

		if _, err := s.history.Append(ctx, queryText(q), user.ID, user.Email, q.Kind); err != nil {
			s.logger.Error("failed to record history", "message_id", msg.ID, "error", err)
		}
	}

	s.state.Store(StateFinalized)
	s.logger.Info("query finalized", "message_id", msg.ID, "has_analysis", res.Data != nil)
	return &Outcome{State: StateFinalized, Message: msg, Analysis: res.Data}
}

// Summarize asks the completion backend for a short executive summary of an
// analysis, for report headers. Not streamed.
func (s *QueryService) Summarize(ctx context.Context, data *domain.AnalysisData) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	text, err := s.streamer.Stream(ctx, completion.Request{
		Prompt: "Please provide a concise, high-level executive summary (2-3 sentences) of this HTS classification analysis for a trade compliance report. Data: " + string(payload),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to summarize analysis: %w", err)
	}
	if text == "" {
		return "Summary unavailable.", nil
	}
	return text, nil
}

func (s *QueryService) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// validate is the idle-state gate: a submission with no content is rejected
// before any collaborator is contacted.
func validate(q domain.Query) error {
	switch q.Kind {
	case domain.KindLookup:
		code := strings.TrimSpace(q.Code)
		if code == "" {
			return ErrEmptyQuery
		}
		if !domain.ValidHtsCode(code) {
			return ErrInvalidCode
		}
	default:
		if strings.TrimSpace(q.Description) == "" && !q.HasImage() {
			return ErrEmptyQuery
		}
	}
	return nil
}

func queryText(q domain.Query) string {
	if q.Kind == domain.KindLookup {
		return strings.TrimSpace(q.Code)
	}
	return q.Description
}

func emit(onEvent EventFunc, ev Event) {
	if onEvent != nil {
		onEvent(ev)
	}
}
