package session

import (
	"errors"
	"time"

	"sqeprep/internal/content"
	"sqeprep/internal/scoring"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("session not in required state")
	ErrSessionNotFound = errors.New("session not found")
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusSubmitted  Status = "submitted"
	StatusTimedOut   Status = "timed_out"
)

func (s Status) Terminal() bool {
	return s == StatusSubmitted || s == StatusTimedOut
}

// State is the per-attempt exam state machine. It is pure: the timer is
// driven by Tick from an external clock, so the machine never sleeps or
// blocks. A State is owned by exactly one caller; the Engine serializes
// access per session id.
type State struct {
	ID          string
	CandidateID string
	Module      content.Module
	Questions   []content.Question

	CurrentIndex     int
	Answers          map[int]int
	Flagged          map[int]struct{}
	RemainingSeconds int
	DurationSeconds  int
	MiniMock         bool
	Status           Status
	StartedAt        time.Time

	timeSpent map[int]float64
}

func NewState(id, candidateID string, module content.Module, questions []content.Question) (*State, error) {
	if id == "" || len(questions) == 0 {
		return nil, ErrInvalidInput
	}
	return &State{
		ID:          id,
		CandidateID: candidateID,
		Module:      module,
		Questions:   questions,
		Answers:     make(map[int]int),
		Flagged:     make(map[int]struct{}),
		Status:      StatusNotStarted,
		timeSpent:   make(map[int]float64),
	}, nil
}

// Start transitions NotStarted -> Running. durationSeconds == 0 means an
// untimed practice session; the machine then never times out.
func (s *State) Start(durationSeconds int) error {
	if s.Status != StatusNotStarted {
		return ErrInvalidState
	}
	if durationSeconds < 0 {
		return ErrInvalidInput
	}
	s.DurationSeconds = durationSeconds
	s.RemainingSeconds = durationSeconds
	s.CurrentIndex = 0
	s.Status = StatusRunning
	s.StartedAt = time.Now()
	return nil
}

// SelectAnswer records the candidate's choice for the current question.
// Last write wins: a candidate may change their mind before moving on.
func (s *State) SelectAnswer(optionIndex int) error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	q := s.Questions[s.CurrentIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrInvalidInput
	}
	s.Answers[s.CurrentIndex] = optionIndex
	return nil
}

// ToggleFlag flips the review flag on the current question. Flags never
// affect scoring.
func (s *State) ToggleFlag() error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	if _, ok := s.Flagged[s.CurrentIndex]; ok {
		delete(s.Flagged, s.CurrentIndex)
	} else {
		s.Flagged[s.CurrentIndex] = struct{}{}
	}
	return nil
}

// Next and Previous clamp at the ends rather than erroring: free navigation
// is intentional exam UX.
func (s *State) Next() error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	if s.CurrentIndex < len(s.Questions)-1 {
		s.CurrentIndex++
	}
	return nil
}

func (s *State) Previous() error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	return nil
}

// Seek moves the cursor to an explicit question index.
func (s *State) Seek(questionIndex int) error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	if questionIndex < 0 || questionIndex >= len(s.Questions) {
		return ErrInvalidInput
	}
	s.CurrentIndex = questionIndex
	return nil
}

// Tick advances the external clock. Elapsed time is attributed to the
// current question. When the remaining time of a timed session reaches zero
// the machine transitions to TimedOut and reports it; the caller then
// materializes the submission from whatever answers exist at that instant.
func (s *State) Tick(elapsedSeconds int) (timedOut bool, err error) {
	if s.Status != StatusRunning {
		return false, ErrInvalidState
	}
	if elapsedSeconds < 0 {
		return false, ErrInvalidInput
	}
	s.timeSpent[s.CurrentIndex] += float64(elapsedSeconds)
	if s.DurationSeconds == 0 {
		return false, nil
	}
	s.RemainingSeconds -= elapsedSeconds
	if s.RemainingSeconds <= 0 {
		s.RemainingSeconds = 0
		s.Status = StatusTimedOut
		return true, nil
	}
	return false, nil
}

// Submit transitions Running -> Submitted. Calling it again on a terminal
// session fails with ErrInvalidState rather than re-scoring.
func (s *State) Submit() error {
	if s.Status != StatusRunning {
		return ErrInvalidState
	}
	s.Status = StatusSubmitted
	return nil
}

// Results builds the full graded result list. Unanswered questions are
// marked incorrect with the no-answer sentinel, never excluded.
func (s *State) Results() []scoring.QuestionResult {
	out := make([]scoring.QuestionResult, 0, len(s.Questions))
	for i, q := range s.Questions {
		answer, ok := s.Answers[i]
		if !ok {
			answer = scoring.NoAnswerIndex
		}
		out = append(out, scoring.NewQuestionResult(q, answer, s.timeSpent[i]))
	}
	return out
}

func (s *State) AnsweredCount() int { return len(s.Answers) }
func (s *State) FlaggedCount() int  { return len(s.Flagged) }
