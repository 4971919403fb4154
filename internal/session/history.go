package session

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrResultNotFound = errors.New("result not found")

// HistoryStore persists completed MockExamResults per candidate. No storage
// technology is mandated; MemoryHistory and SQLHistory both conform.
type HistoryStore interface {
	SaveResult(ctx context.Context, r MockExamResult) error
	ListResults(ctx context.Context, candidateID string) ([]MockExamResult, error)
	GetResult(ctx context.Context, resultID string) (*MockExamResult, error)
}

type MemoryHistory struct {
	mu      sync.RWMutex
	byID    map[string]MockExamResult
	byOwner map[string][]string
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		byID:    make(map[string]MockExamResult),
		byOwner: make(map[string][]string),
	}
}

func (h *MemoryHistory) SaveResult(ctx context.Context, r MockExamResult) error {
	if r.ID == "" || r.CandidateID == "" {
		return ErrInvalidInput
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.byID[r.ID]; !exists {
		h.byOwner[r.CandidateID] = append(h.byOwner[r.CandidateID], r.ID)
	}
	h.byID[r.ID] = r
	return nil
}

func (h *MemoryHistory) ListResults(ctx context.Context, candidateID string) ([]MockExamResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]MockExamResult, 0, len(h.byOwner[candidateID]))
	for _, id := range h.byOwner[candidateID] {
		out = append(out, h.byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

func (h *MemoryHistory) GetResult(ctx context.Context, resultID string) (*MockExamResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.byID[resultID]
	if !ok {
		return nil, ErrResultNotFound
	}
	return &r, nil
}
