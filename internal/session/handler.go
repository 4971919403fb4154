package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sqeprep/internal/app/apiresp"
	"sqeprep/internal/content"
	"sqeprep/internal/policy"
	"sqeprep/internal/scoring"
	"sqeprep/internal/wrongstore"
)

type Handler struct {
	svc sessionService
}

type sessionService interface {
	StartSession(ctx context.Context, in StartSessionInput) (*SessionView, error)
	Answer(ctx context.Context, sessionID string, questionIndex, optionIndex int) error
	Flag(ctx context.Context, sessionID string, questionIndex int) error
	Next(ctx context.Context, sessionID string) (*SessionView, error)
	Previous(ctx context.Context, sessionID string) (*SessionView, error)
	Tick(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error)
	Submit(ctx context.Context, sessionID string) (*MockExamResult, error)
	Summary(ctx context.Context, sessionID string) (*SessionView, error)
	Question(ctx context.Context, sessionID string, questionIndex int) (*QuestionView, error)
	Result(ctx context.Context, sessionID string) (*MockExamResult, error)
	WrongQuestions(ctx context.Context, candidateID string, f wrongstore.Filter) ([]wrongstore.Entry, error)
	History(ctx context.Context, candidateID string) ([]MockExamResult, error)
	Analytics(ctx context.Context, candidateID string) (*scoring.Performance, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type startSessionRequest struct {
	CandidateID   string   `json:"candidate_id"`
	Plan          string   `json:"plan"`
	Module        string   `json:"module"`
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
	QuestionCount int      `json:"question_count"`
	Intensity     int      `json:"intensity"`
	Timed         bool     `json:"timed"`
	MiniMock      bool     `json:"mini_mock"`
	Capabilities  []string `json:"capabilities"`
}

type answerRequest struct {
	QuestionIndex int `json:"question_index"`
	OptionIndex   int `json:"option_index"`
}

type flagRequest struct {
	QuestionIndex int `json:"question_index"`
}

type tickRequest struct {
	ElapsedSeconds int `json:"elapsed_seconds"`
}

type tickResponse struct {
	Session *SessionView    `json:"session,omitempty"`
	Result  *MockExamResult `json:"result,omitempty"`
}

func NewHandler(svc sessionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.CandidateID) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "candidate_id is required"})
		return
	}
	if strings.TrimSpace(req.Module) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "module is required"})
		return
	}

	view, err := h.svc.StartSession(r.Context(), StartSessionInput{
		CandidateID:           req.CandidateID,
		Plan:                  req.Plan,
		Module:                content.Module(req.Module),
		Topic:                 req.Topic,
		Difficulty:            content.Difficulty(req.Difficulty),
		QuestionCount:         req.QuestionCount,
		Intensity:             req.Intensity,
		Timed:                 req.Timed,
		MiniMock:              req.MiniMock,
		RequestedCapabilities: req.Capabilities,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: view})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Question(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question index"})
		return
	}
	view, err := h.svc.Question(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if err := h.svc.Answer(r.Context(), chi.URLParam(r, "id"), req.QuestionIndex, req.OptionIndex); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true})
}

func (h *Handler) Flag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if err := h.svc.Flag(r.Context(), chi.URLParam(r, "id"), req.QuestionIndex); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Previous(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	sessionID := chi.URLParam(r, "id")
	result, err := h.svc.Tick(r.Context(), sessionID, req.ElapsedSeconds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result != nil {
		writeJSON(w, r, http.StatusOK, response{OK: true, Data: tickResponse{Result: result}})
		return
	}
	view, err := h.svc.Summary(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: tickResponse{Session: view}})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: result})
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: result})
}

func (h *Handler) WrongQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := wrongstore.Filter{
		Topic:      strings.TrimSpace(q.Get("topic")),
		Difficulty: content.Difficulty(strings.TrimSpace(q.Get("difficulty"))),
	}
	if raw := strings.TrimSpace(q.Get("min_attempts")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid min_attempts"})
			return
		}
		f.MinAttempts = n
	}
	entries, err := h.svc.WrongQuestions(r.Context(), chi.URLParam(r, "candidateID"), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: entries})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.History(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: results})
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	perf, err := h.svc.Analytics(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: perf})
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrResultNotFound), errors.Is(err, content.ErrModuleNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrInvalidState):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, scoring.ErrInvalidInput), errors.Is(err, wrongstore.ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	case errors.Is(err, policy.ErrCapabilityDenied):
		writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
