package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"sqeprep/internal/app/apiresp"
	"sqeprep/internal/content"
	"sqeprep/internal/policy"
	"sqeprep/internal/scoring"
	"sqeprep/internal/wrongstore"
)

type mockSessionService struct {
	startSessionFn   func(ctx context.Context, in StartSessionInput) (*SessionView, error)
	answerFn         func(ctx context.Context, sessionID string, questionIndex, optionIndex int) error
	flagFn           func(ctx context.Context, sessionID string, questionIndex int) error
	nextFn           func(ctx context.Context, sessionID string) (*SessionView, error)
	previousFn       func(ctx context.Context, sessionID string) (*SessionView, error)
	tickFn           func(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error)
	submitFn         func(ctx context.Context, sessionID string) (*MockExamResult, error)
	summaryFn        func(ctx context.Context, sessionID string) (*SessionView, error)
	questionFn       func(ctx context.Context, sessionID string, questionIndex int) (*QuestionView, error)
	resultFn         func(ctx context.Context, sessionID string) (*MockExamResult, error)
	wrongQuestionsFn func(ctx context.Context, candidateID string, f wrongstore.Filter) ([]wrongstore.Entry, error)
	historyFn        func(ctx context.Context, candidateID string) ([]MockExamResult, error)
	analyticsFn      func(ctx context.Context, candidateID string) (*scoring.Performance, error)
}

func (m *mockSessionService) StartSession(ctx context.Context, in StartSessionInput) (*SessionView, error) {
	if m.startSessionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.startSessionFn(ctx, in)
}

func (m *mockSessionService) Answer(ctx context.Context, sessionID string, questionIndex, optionIndex int) error {
	if m.answerFn == nil {
		return errors.New("not implemented")
	}
	return m.answerFn(ctx, sessionID, questionIndex, optionIndex)
}

func (m *mockSessionService) Flag(ctx context.Context, sessionID string, questionIndex int) error {
	if m.flagFn == nil {
		return errors.New("not implemented")
	}
	return m.flagFn(ctx, sessionID, questionIndex)
}

func (m *mockSessionService) Next(ctx context.Context, sessionID string) (*SessionView, error) {
	if m.nextFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.nextFn(ctx, sessionID)
}

func (m *mockSessionService) Previous(ctx context.Context, sessionID string) (*SessionView, error) {
	if m.previousFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.previousFn(ctx, sessionID)
}

func (m *mockSessionService) Tick(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error) {
	if m.tickFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.tickFn(ctx, sessionID, elapsedSeconds)
}

func (m *mockSessionService) Submit(ctx context.Context, sessionID string) (*MockExamResult, error) {
	if m.submitFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.submitFn(ctx, sessionID)
}

func (m *mockSessionService) Summary(ctx context.Context, sessionID string) (*SessionView, error) {
	if m.summaryFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.summaryFn(ctx, sessionID)
}

func (m *mockSessionService) Question(ctx context.Context, sessionID string, questionIndex int) (*QuestionView, error) {
	if m.questionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.questionFn(ctx, sessionID, questionIndex)
}

func (m *mockSessionService) Result(ctx context.Context, sessionID string) (*MockExamResult, error) {
	if m.resultFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.resultFn(ctx, sessionID)
}

func (m *mockSessionService) WrongQuestions(ctx context.Context, candidateID string, f wrongstore.Filter) ([]wrongstore.Entry, error) {
	if m.wrongQuestionsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.wrongQuestionsFn(ctx, candidateID, f)
}

func (m *mockSessionService) History(ctx context.Context, candidateID string) ([]MockExamResult, error) {
	if m.historyFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.historyFn(ctx, candidateID)
}

func (m *mockSessionService) Analytics(ctx context.Context, candidateID string) (*scoring.Performance, error) {
	if m.analyticsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.analyticsFn(ctx, candidateID)
}

func newTestRouter(svc sessionService) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Post("/sessions", h.Start)
	r.Get("/sessions/{id}", h.Summary)
	r.Get("/sessions/{id}/questions/{index}", h.Question)
	r.Put("/sessions/{id}/answer", h.Answer)
	r.Post("/sessions/{id}/tick", h.Tick)
	r.Post("/sessions/{id}/submit", h.Submit)
	r.Get("/candidates/{candidateID}/wrong-questions", h.WrongQuestions)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiresp.Envelope {
	t.Helper()
	var env apiresp.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestStartSessionCreated(t *testing.T) {
	svc := &mockSessionService{
		startSessionFn: func(ctx context.Context, in StartSessionInput) (*SessionView, error) {
			if in.CandidateID != "cand-1" || in.Module != content.ModuleFLK1 || !in.Timed {
				t.Fatalf("input = %+v, want request fields forwarded", in)
			}
			if in.Intensity != 2 {
				t.Fatalf("intensity = %d, want 2", in.Intensity)
			}
			return &SessionView{SessionID: "sess-1", Status: StatusRunning, TotalQuestions: 45}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/sessions", startSessionRequest{
		CandidateID:   "cand-1",
		Plan:          "premium",
		Module:        "FLK1",
		QuestionCount: 45,
		Intensity:     2,
		Timed:         true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.OK || env.Data == nil {
		t.Fatalf("envelope = %+v, want ok with session data", env)
	}
}

func TestStartSessionBadRequests(t *testing.T) {
	router := newTestRouter(&mockSessionService{})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing candidate", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/sessions", startSessionRequest{Module: "FLK1"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing module", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/sessions", startSessionRequest{CandidateID: "cand-1"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{name: "session not found", err: ErrSessionNotFound, wantCode: http.StatusNotFound, wantTag: "not_found"},
		{name: "module not found", err: content.ErrModuleNotFound, wantCode: http.StatusNotFound, wantTag: "not_found"},
		{name: "invalid state", err: ErrInvalidState, wantCode: http.StatusConflict, wantTag: "invalid_state"},
		{name: "invalid input", err: ErrInvalidInput, wantCode: http.StatusBadRequest, wantTag: "invalid_input"},
		{name: "capability denied", err: policy.ErrCapabilityDenied, wantCode: http.StatusForbidden, wantTag: "capability_denied"},
		{name: "unexpected failure", err: errors.New("db gone"), wantCode: http.StatusInternalServerError, wantTag: "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessionService{
				submitFn: func(ctx context.Context, sessionID string) (*MockExamResult, error) {
					return nil, tc.err
				},
			}
			router := newTestRouter(svc)
			rec := doRequest(t, router, http.MethodPost, "/sessions/sess-1/submit", nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			env := decodeEnvelope(t, rec)
			if env.OK || env.Error == nil {
				t.Fatalf("envelope = %+v, want error payload", env)
			}
			if env.Error.Code != tc.wantTag {
				t.Fatalf("error code = %q, want %q", env.Error.Code, tc.wantTag)
			}
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	svc := &mockSessionService{
		submitFn: func(ctx context.Context, sessionID string) (*MockExamResult, error) {
			return nil, errors.New("pq: connection refused on 10.0.0.5")
		},
	}
	router := newTestRouter(svc)
	rec := doRequest(t, router, http.MethodPost, "/sessions/sess-1/submit", nil)
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "internal error" {
		t.Fatalf("error = %+v, want opaque internal error message", env.Error)
	}
}

func TestTickRunningReturnsSessionView(t *testing.T) {
	svc := &mockSessionService{
		tickFn: func(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error) {
			if elapsedSeconds != 30 {
				t.Fatalf("elapsed = %d, want 30", elapsedSeconds)
			}
			return nil, nil
		},
		summaryFn: func(ctx context.Context, sessionID string) (*SessionView, error) {
			return &SessionView{SessionID: sessionID, Status: StatusRunning, RemainingSeconds: 970}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/sessions/sess-1/tick", tickRequest{ElapsedSeconds: 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", env.Data)
	}
	if _, hasSession := data["session"]; !hasSession {
		t.Fatalf("data = %v, want running session snapshot", data)
	}
	if _, hasResult := data["result"]; hasResult {
		t.Fatalf("data = %v, running tick must not carry a result", data)
	}
}

func TestTickTimeoutReturnsResult(t *testing.T) {
	svc := &mockSessionService{
		tickFn: func(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error) {
			return &MockExamResult{ID: "res-1", ScaledScore: 310, PassStatus: scoring.Pass}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/sessions/sess-1/tick", tickRequest{ElapsedSeconds: 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", env.Data)
	}
	if _, hasResult := data["result"]; !hasResult {
		t.Fatalf("data = %v, want materialized result", data)
	}
}

func TestQuestionInvalidIndex(t *testing.T) {
	router := newTestRouter(&mockSessionService{})
	rec := doRequest(t, router, http.MethodGet, "/sessions/sess-1/questions/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWrongQuestionsQueryParsing(t *testing.T) {
	var captured wrongstore.Filter
	svc := &mockSessionService{
		wrongQuestionsFn: func(ctx context.Context, candidateID string, f wrongstore.Filter) ([]wrongstore.Entry, error) {
			if candidateID != "cand-1" {
				t.Fatalf("candidate = %q, want cand-1", candidateID)
			}
			captured = f
			return []wrongstore.Entry{}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet,
		"/candidates/cand-1/wrong-questions?topic=Tort&difficulty=advanced&min_attempts=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Topic != "Tort" || captured.Difficulty != content.DifficultyAdvanced || captured.MinAttempts != 2 {
		t.Fatalf("filter = %+v, want parsed query values", captured)
	}

	rec = doRequest(t, router, http.MethodGet, "/candidates/cand-1/wrong-questions?min_attempts=x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed min_attempts", rec.Code)
	}
}

func TestAnswerForwardsBody(t *testing.T) {
	svc := &mockSessionService{
		answerFn: func(ctx context.Context, sessionID string, questionIndex, optionIndex int) error {
			if sessionID != "sess-1" || questionIndex != 4 || optionIndex != 2 {
				t.Fatalf("got (%q, %d, %d), want (sess-1, 4, 2)", sessionID, questionIndex, optionIndex)
			}
			return nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPut, "/sessions/sess-1/answer", answerRequest{QuestionIndex: 4, OptionIndex: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
