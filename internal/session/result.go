package session

import (
	"time"

	"sqeprep/internal/content"
	"sqeprep/internal/scoring"
)

// MockExamResult is the immutable record persisted for history. ScaledScore
// is the Angoff-weighted score used for the official pass/fail verdict;
// PercentageScore and RawScore are the simple unweighted figures reported
// alongside for display.
type MockExamResult struct {
	ID              string                   `json:"id"`
	SessionID       string                   `json:"session_id"`
	CandidateID     string                   `json:"candidate_id"`
	Module          content.Module           `json:"module"`
	Questions       []scoring.QuestionResult `json:"questions"`
	RawScore        int                      `json:"raw_score"`
	ScaledScore     int                      `json:"scaled_score"`
	PassStatus      scoring.PassStatus       `json:"pass_status"`
	ConfidenceLevel int                      `json:"confidence_level"`
	CompletedAt     time.Time                `json:"completed_at"`
	Timed           bool                     `json:"timed"`
	MiniMock        bool                     `json:"mini_mock"`
	TotalQuestions  int                      `json:"total_questions"`
	CorrectAnswers  int                      `json:"correct_answers"`
	PercentageScore float64                  `json:"percentage_score"`
	Performance     *scoring.Performance     `json:"performance,omitempty"`
}

func buildResult(id string, st *State, results []scoring.QuestionResult) (*MockExamResult, error) {
	weighted, err := scoring.WeightedScaledScore(results)
	if err != nil {
		return nil, err
	}
	raw, err := scoring.RawScore(results)
	if err != nil {
		return nil, err
	}
	confidence, err := scoring.ConfidenceLevel(results)
	if err != nil {
		return nil, err
	}
	perf, err := scoring.AnalyzePerformance(results)
	if err != nil {
		return nil, err
	}

	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	percentage := 0.0
	if len(results) > 0 {
		percentage = 100 * float64(correct) / float64(len(results))
	}

	return &MockExamResult{
		ID:              id,
		SessionID:       st.ID,
		CandidateID:     st.CandidateID,
		Module:          st.Module,
		Questions:       results,
		RawScore:        raw,
		ScaledScore:     weighted,
		PassStatus:      scoring.ScaledPassStatus(weighted),
		ConfidenceLevel: confidence,
		CompletedAt:     time.Now(),
		Timed:           st.DurationSeconds > 0,
		MiniMock:        st.MiniMock,
		TotalQuestions:  len(results),
		CorrectAnswers:  correct,
		PercentageScore: percentage,
		Performance:     perf,
	}, nil
}
