package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sqeprep/internal/content"
	"sqeprep/internal/policy"
	"sqeprep/internal/scoring"
	"sqeprep/internal/wrongstore"
)

// Engine owns all in-progress sessions and drives the scoring engine at
// submission time. Mutating operations are serialized per session id; the
// scoring engine itself is pure and needs no locking.
type Engine struct {
	provider content.Provider
	wrongs   wrongstore.Store
	history  HistoryStore

	mu       sync.RWMutex
	sessions map[string]*managedSession
}

type managedSession struct {
	mu     sync.Mutex
	state  *State
	plan   string
	result *MockExamResult

	// Persistence progress for finalize. A failed write leaves these
	// behind the result so a retried submit resumes where it stopped
	// instead of double-counting wrong answers.
	historySaved bool
	wrongsSaved  int
}

func (ms *managedSession) persisted() bool {
	return ms.result != nil && ms.historySaved && ms.wrongsSaved >= len(ms.result.Questions)
}

func NewEngine(provider content.Provider, wrongs wrongstore.Store, history HistoryStore) *Engine {
	return &Engine{
		provider: provider,
		wrongs:   wrongs,
		history:  history,
		sessions: make(map[string]*managedSession),
	}
}

type StartSessionInput struct {
	CandidateID           string
	Plan                  string
	Module                content.Module
	Topic                 string
	Difficulty            content.Difficulty
	QuestionCount         int // 0 means the module's full exam size
	Intensity             int // 0 means the plan's base study intensity
	Timed                 bool
	MiniMock              bool
	RequestedCapabilities []string
}

// SessionView is the caller-safe snapshot of a session: correct answers are
// never included.
type SessionView struct {
	SessionID        string         `json:"session_id"`
	Module           content.Module `json:"module"`
	Status           Status         `json:"status"`
	TotalQuestions   int            `json:"total_questions"`
	CurrentIndex     int            `json:"current_index"`
	Answered         int            `json:"answered"`
	Flagged          int            `json:"flagged"`
	DurationSeconds  int            `json:"duration_seconds"`
	RemainingSeconds int            `json:"remaining_seconds"`
}

// QuestionView is a question as served to the candidate, with the correct
// option index stripped.
type QuestionView struct {
	Index      int                `json:"index"`
	QuestionID string             `json:"question_id"`
	Topic      string             `json:"topic"`
	Subtopic   string             `json:"subtopic"`
	Difficulty content.Difficulty `json:"difficulty"`
	Options    []string           `json:"options"`
	Answered   *int               `json:"answered,omitempty"`
	Flagged    bool               `json:"flagged"`
}

// StartSession validates the request against the candidate's plan, pulls
// questions from the content provider and creates a Running session.
func (e *Engine) StartSession(ctx context.Context, in StartSessionInput) (*SessionView, error) {
	if in.CandidateID == "" || in.Module == "" {
		return nil, ErrInvalidInput
	}
	if in.QuestionCount < 0 || in.Intensity < 0 {
		return nil, ErrInvalidInput
	}

	features := policy.Resolve(in.Plan)
	if in.Intensity > features.IntensityLevels {
		return nil, policy.ErrCapabilityDenied
	}
	for _, capability := range in.RequestedCapabilities {
		if err := policy.RequireCapability(in.Plan, capability); err != nil {
			return nil, err
		}
	}
	if in.Timed {
		if err := policy.RequireCapability(in.Plan, policy.CapabilityTimedConditions); err != nil {
			return nil, err
		}
	}

	cfg, err := e.provider.ExamConfig(ctx, in.Module)
	if err != nil {
		return nil, fmt.Errorf("load exam config: %w", err)
	}

	count := in.QuestionCount
	if count == 0 {
		count = cfg.TotalQuestions
	}
	if in.MiniMock {
		sizes := features.MiniMockSizes
		if len(sizes) == 0 {
			return nil, policy.ErrCapabilityDenied
		}
		allowed := false
		for _, s := range sizes {
			if s == count {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrInvalidInput
		}
	}
	if count > features.MaxQuestionsPerSession {
		return nil, policy.ErrCapabilityDenied
	}

	if in.Timed && !in.MiniMock {
		// Only full timed mocks consume the plan's mock quota; practice
		// sessions and mini-mocks in history do not count against it.
		past, err := e.history.ListResults(ctx, in.CandidateID)
		if err != nil {
			return nil, fmt.Errorf("check mock quota: %w", err)
		}
		used := 0
		for _, r := range past {
			if r.Timed && !r.MiniMock {
				used++
			}
		}
		if used >= features.MockQuota {
			return nil, policy.ErrCapabilityDenied
		}
	}

	questions, err := e.provider.QuestionsFor(ctx, in.Module, content.Filter{
		Topic:      in.Topic,
		Difficulty: in.Difficulty,
		Limit:      count,
	})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrInvalidInput
	}

	duration := 0
	if in.Timed {
		duration = cfg.DurationSeconds
		if len(questions) < cfg.TotalQuestions && cfg.TotalQuestions > 0 {
			duration = cfg.DurationSeconds * len(questions) / cfg.TotalQuestions
		}
	}

	st, err := NewState(uuid.NewString(), in.CandidateID, in.Module, questions)
	if err != nil {
		return nil, err
	}
	st.MiniMock = in.MiniMock
	if err := st.Start(duration); err != nil {
		return nil, err
	}

	ms := &managedSession{state: st, plan: in.Plan}
	e.mu.Lock()
	e.sessions[st.ID] = ms
	e.mu.Unlock()

	return viewOf(st), nil
}

// Answer records a choice for an explicit question index; the cursor follows
// the answered question. Last write wins.
func (e *Engine) Answer(ctx context.Context, sessionID string, questionIndex, optionIndex int) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := ms.state.Seek(questionIndex); err != nil {
		return err
	}
	return ms.state.SelectAnswer(optionIndex)
}

func (e *Engine) Flag(ctx context.Context, sessionID string, questionIndex int) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := ms.state.Seek(questionIndex); err != nil {
		return err
	}
	return ms.state.ToggleFlag()
}

func (e *Engine) Next(ctx context.Context, sessionID string) (*SessionView, error) {
	return e.navigate(sessionID, (*State).Next)
}

func (e *Engine) Previous(ctx context.Context, sessionID string) (*SessionView, error) {
	return e.navigate(sessionID, (*State).Previous)
}

func (e *Engine) navigate(sessionID string, move func(*State) error) (*SessionView, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := move(ms.state); err != nil {
		return nil, err
	}
	return viewOf(ms.state), nil
}

// Tick advances the session clock. When a timed session runs out, the
// submission is materialized immediately from the answers present at that
// instant and the result is returned.
func (e *Engine) Tick(ctx context.Context, sessionID string, elapsedSeconds int) (*MockExamResult, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	timedOut, err := ms.state.Tick(elapsedSeconds)
	if err != nil {
		return nil, err
	}
	if !timedOut {
		return nil, nil
	}
	return e.finalize(ctx, ms)
}

// Submit grades the session and persists the outcome. A second submit after
// a fully persisted terminal transition fails with ErrInvalidState and leaves
// the already produced result untouched; when an earlier submit graded the
// session but a store write failed, submitting again retries the remaining
// writes without re-scoring.
func (e *Engine) Submit(ctx context.Context, sessionID string) (*MockExamResult, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.state.Submit(); err != nil {
		if ms.result != nil && !ms.persisted() {
			return e.finalize(ctx, ms)
		}
		return nil, err
	}
	return e.finalize(ctx, ms)
}

func (e *Engine) Summary(ctx context.Context, sessionID string) (*SessionView, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return viewOf(ms.state), nil
}

func (e *Engine) Question(ctx context.Context, sessionID string, questionIndex int) (*QuestionView, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	st := ms.state
	if questionIndex < 0 || questionIndex >= len(st.Questions) {
		return nil, ErrInvalidInput
	}
	q := st.Questions[questionIndex]
	view := &QuestionView{
		Index:      questionIndex,
		QuestionID: q.ID,
		Topic:      q.Topic,
		Subtopic:   q.Subtopic,
		Difficulty: q.Difficulty,
		Options:    append([]string(nil), q.Options...),
	}
	if answer, ok := st.Answers[questionIndex]; ok {
		a := answer
		view.Answered = &a
	}
	_, view.Flagged = st.Flagged[questionIndex]
	return view, nil
}

// Result returns the graded outcome of a terminal session.
func (e *Engine) Result(ctx context.Context, sessionID string) (*MockExamResult, error) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.result == nil {
		return nil, ErrInvalidState
	}
	return ms.result, nil
}

// WrongQuestions exposes the remediation view of the wrong-answer store.
func (e *Engine) WrongQuestions(ctx context.Context, candidateID string, f wrongstore.Filter) ([]wrongstore.Entry, error) {
	if candidateID == "" {
		return nil, ErrInvalidInput
	}
	return e.wrongs.ActiveWrongQuestions(ctx, candidateID, f)
}

// History lists the candidate's persisted results, most recent first.
func (e *Engine) History(ctx context.Context, candidateID string) ([]MockExamResult, error) {
	if candidateID == "" {
		return nil, ErrInvalidInput
	}
	return e.history.ListResults(ctx, candidateID)
}

// Analytics re-runs the performance analysis over every stored result for
// the candidate, the post-hoc counterpart to a single session's breakdown.
func (e *Engine) Analytics(ctx context.Context, candidateID string) (*scoring.Performance, error) {
	if candidateID == "" {
		return nil, ErrInvalidInput
	}
	past, err := e.history.ListResults(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	all := make([]scoring.QuestionResult, 0)
	for _, r := range past {
		all = append(all, r.Questions...)
	}
	return scoring.AnalyzePerformance(all)
}

// finalize is called with the session lock held, after the state machine has
// reached a terminal status. A persistence failure is propagated, never
// treated as success; the computed result stays attached to the session so a
// retry does not re-score.
func (e *Engine) finalize(ctx context.Context, ms *managedSession) (*MockExamResult, error) {
	if ms.result == nil {
		result, err := buildResult(uuid.NewString(), ms.state, ms.state.Results())
		if err != nil {
			return nil, err
		}
		ms.result = result
	}

	if !ms.historySaved {
		if err := e.history.SaveResult(ctx, *ms.result); err != nil {
			return ms.result, fmt.Errorf("save result: %w", err)
		}
		ms.historySaved = true
	}
	for ms.wrongsSaved < len(ms.result.Questions) {
		r := ms.result.Questions[ms.wrongsSaved]
		if r.Correct {
			if err := e.wrongs.MarkCorrect(ctx, ms.state.CandidateID, r.QuestionID); err != nil {
				return ms.result, fmt.Errorf("mark correct: %w", err)
			}
		} else if err := e.wrongs.RecordIncorrect(ctx, ms.state.CandidateID, wrongstore.IncorrectAttempt{
			QuestionID:    r.QuestionID,
			UserAnswer:    r.UserAnswerIndex,
			CorrectAnswer: r.CorrectAnswerIndex,
			Difficulty:    r.Difficulty,
			Topic:         r.Topic,
		}); err != nil {
			return ms.result, fmt.Errorf("record incorrect: %w", err)
		}
		ms.wrongsSaved++
	}
	return ms.result, nil
}

func (e *Engine) lookup(sessionID string) (*managedSession, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	e.mu.RLock()
	ms, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms, nil
}

func viewOf(st *State) *SessionView {
	return &SessionView{
		SessionID:        st.ID,
		Module:           st.Module,
		Status:           st.Status,
		TotalQuestions:   len(st.Questions),
		CurrentIndex:     st.CurrentIndex,
		Answered:         st.AnsweredCount(),
		Flagged:          st.FlaggedCount(),
		DurationSeconds:  st.DurationSeconds,
		RemainingSeconds: st.RemainingSeconds,
	}
}
