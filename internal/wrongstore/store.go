package wrongstore

import (
	"context"
	"errors"
	"time"

	"sqeprep/internal/content"
)

var ErrInvalidInput = errors.New("invalid input")

// Entry is the durable per-candidate record for one question the candidate
// has answered incorrectly at least once. Attempts only ever grows; a later
// correct answer flips LastAttemptCorrect but never deletes the entry, so
// repeated historical difficulty with a question is never lost.
type Entry struct {
	QuestionID         string             `json:"question_id"`
	UserAnswer         int                `json:"user_answer"`
	CorrectAnswer      int                `json:"correct_answer"`
	Timestamp          time.Time          `json:"timestamp"`
	Attempts           int                `json:"attempts"`
	LastAttemptCorrect bool               `json:"last_attempt_correct"`
	Difficulty         content.Difficulty `json:"difficulty"`
	Topic              string             `json:"topic"`
}

type IncorrectAttempt struct {
	QuestionID    string
	UserAnswer    int
	CorrectAnswer int
	Difficulty    content.Difficulty
	Topic         string
}

// Filter narrows ActiveWrongQuestions. Zero values mean "any".
type Filter struct {
	MinAttempts int
	Topic       string
	Difficulty  content.Difficulty
}

// Store tracks wrong answers per candidate. Writes for a given question id
// are atomic read-modify-write; reads may run concurrently with writes under
// last-committed semantics.
type Store interface {
	RecordIncorrect(ctx context.Context, candidateID string, a IncorrectAttempt) error
	MarkCorrect(ctx context.Context, candidateID, questionID string) error
	ActiveWrongQuestions(ctx context.Context, candidateID string, f Filter) ([]Entry, error)
}

// ByMinimumAttempts lists active entries the candidate has missed at least n
// times, for remediation-queue construction.
func ByMinimumAttempts(ctx context.Context, s Store, candidateID string, n int) ([]Entry, error) {
	return s.ActiveWrongQuestions(ctx, candidateID, Filter{MinAttempts: n})
}

func ByTopic(ctx context.Context, s Store, candidateID, topic string) ([]Entry, error) {
	return s.ActiveWrongQuestions(ctx, candidateID, Filter{Topic: topic})
}

func ByDifficulty(ctx context.Context, s Store, candidateID string, d content.Difficulty) ([]Entry, error) {
	return s.ActiveWrongQuestions(ctx, candidateID, Filter{Difficulty: d})
}

func validateAttempt(a IncorrectAttempt) error {
	if a.QuestionID == "" {
		return ErrInvalidInput
	}
	if a.CorrectAnswer < 0 {
		return ErrInvalidInput
	}
	if a.UserAnswer < -1 {
		return ErrInvalidInput
	}
	return nil
}

func matches(e Entry, f Filter) bool {
	if e.LastAttemptCorrect {
		return false
	}
	if f.MinAttempts > 0 && e.Attempts < f.MinAttempts {
		return false
	}
	if f.Topic != "" && e.Topic != f.Topic {
		return false
	}
	if f.Difficulty != "" && e.Difficulty != f.Difficulty {
		return false
	}
	return true
}
