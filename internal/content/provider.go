package content

import (
	"context"
	"errors"
)

var (
	ErrModuleNotFound = errors.New("exam module not found")
)

// Module identifies one of the fixed SQE1 exam modules.
type Module string

const (
	ModuleFLK1 Module = "FLK1"
	ModuleFLK2 Module = "FLK2"
)

// Difficulty bands a question can carry. The scoring engine groups results
// by these bands, so the set is closed.
type Difficulty string

const (
	DifficultyFoundation   Difficulty = "foundation"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyFoundation, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	}
	return false
}

// Question is immutable once issued to a session. AngoffScore is the
// expert-panel estimate (0-100) of the share of competent candidates who
// answer correctly; lower means harder.
type Question struct {
	ID                 string     `json:"id"`
	Module             Module     `json:"module"`
	Topic              string     `json:"topic"`
	Subtopic           string     `json:"subtopic"`
	Difficulty         Difficulty `json:"difficulty"`
	AngoffScore        float64    `json:"angoff_score"`
	Options            []string   `json:"options"`
	CorrectOptionIndex int        `json:"correct_option_index"`
}

// ExamConfig describes the shape of a full mock for a module.
type ExamConfig struct {
	Module          Module   `json:"module"`
	TotalQuestions  int      `json:"total_questions"`
	DurationSeconds int      `json:"duration_seconds"`
	Subjects        []string `json:"subjects"`
}

// Filter narrows a question request. Zero values mean "any".
type Filter struct {
	Topic      string
	Difficulty Difficulty
	Limit      int
}

// Provider supplies question content and exam configuration. The engine
// treats it as read-only and never caches beyond one session.
type Provider interface {
	QuestionsFor(ctx context.Context, module Module, f Filter) ([]Question, error)
	ExamConfig(ctx context.Context, module Module) (*ExamConfig, error)
}
