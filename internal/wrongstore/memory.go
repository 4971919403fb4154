package wrongstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used by tests and single-node
// deployments. One mutex serializes read-modify-write cycles so attempt
// counts are never dropped under concurrent retries.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]*Entry // candidateID -> questionID -> entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]*Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) RecordIncorrect(ctx context.Context, candidateID string, a IncorrectAttempt) error {
	if candidateID == "" {
		return ErrInvalidInput
	}
	if err := validateAttempt(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byQuestion := s.entries[candidateID]
	if byQuestion == nil {
		byQuestion = make(map[string]*Entry)
		s.entries[candidateID] = byQuestion
	}

	e, ok := byQuestion[a.QuestionID]
	if !ok {
		byQuestion[a.QuestionID] = &Entry{
			QuestionID:         a.QuestionID,
			UserAnswer:         a.UserAnswer,
			CorrectAnswer:      a.CorrectAnswer,
			Timestamp:          s.now(),
			Attempts:           1,
			LastAttemptCorrect: false,
			Difficulty:         a.Difficulty,
			Topic:              a.Topic,
		}
		return nil
	}

	e.Attempts++
	e.UserAnswer = a.UserAnswer
	e.Timestamp = s.now()
	e.LastAttemptCorrect = false
	return nil
}

func (s *MemoryStore) MarkCorrect(ctx context.Context, candidateID, questionID string) error {
	if candidateID == "" || questionID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[candidateID][questionID]
	if !ok {
		// First-attempt-correct questions never enter the store.
		return nil
	}
	e.LastAttemptCorrect = true
	e.Timestamp = s.now()
	return nil
}

func (s *MemoryStore) ActiveWrongQuestions(ctx context.Context, candidateID string, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range s.entries[candidateID] {
		if matches(*e, f) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}
