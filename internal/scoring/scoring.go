package scoring

import (
	"errors"
	"math"

	"sqeprep/internal/content"
)

var ErrInvalidInput = errors.New("invalid input")

// NoAnswerIndex marks an unanswered question in a QuestionResult. Unanswered
// questions are always scored as incorrect, never excluded.
const NoAnswerIndex = -1

const (
	// Scaled band mandated by the regulator.
	scaledFloor = 100
	scaledCeil  = 500
	// PassMark is the fixed pass threshold on the scaled band, anchored to
	// 60% raw.
	PassMark        = 300
	passPercentage  = 60.0
	angoffWeightMin = 10.0
)

// QuestionResult is one graded answer. Correct must equal
// UserAnswerIndex == CorrectAnswerIndex; build values with NewQuestionResult.
type QuestionResult struct {
	QuestionID         string             `json:"question_id"`
	UserAnswerIndex    int                `json:"user_answer_index"`
	CorrectAnswerIndex int                `json:"correct_answer_index"`
	Correct            bool               `json:"correct"`
	Difficulty         content.Difficulty `json:"difficulty"`
	Topic              string             `json:"topic"`
	AngoffScore        float64            `json:"angoff_score"`
	TimeSpentSeconds   float64            `json:"time_spent_seconds"`
}

func NewQuestionResult(q content.Question, userAnswer int, timeSpentSeconds float64) QuestionResult {
	return QuestionResult{
		QuestionID:         q.ID,
		UserAnswerIndex:    userAnswer,
		CorrectAnswerIndex: q.CorrectOptionIndex,
		Correct:            userAnswer == q.CorrectOptionIndex,
		Difficulty:         q.Difficulty,
		Topic:              q.Topic,
		AngoffScore:        q.AngoffScore,
		TimeSpentSeconds:   timeSpentSeconds,
	}
}

type PassStatus string

const (
	Pass PassStatus = "pass"
	Fail PassStatus = "fail"
)

type ScaledResult struct {
	CorrectCount    int     `json:"correct_count"`
	ScaledScore     int     `json:"scaled_score"`
	Passed          bool    `json:"passed"`
	PercentageScore float64 `json:"percentage_score"`
}

// ScaleScore maps a raw correct count onto the 100-500 regulator band with
// the pass mark 300 anchored at 60%. The mapping is piecewise linear,
// continuous and monotonic; it holds exactly at 0% -> 100, 60% -> 300 and
// 100% -> 500.
func ScaleScore(correctCount, totalCount int) (*ScaledResult, error) {
	if totalCount <= 0 {
		return nil, ErrInvalidInput
	}
	if correctCount < 0 || correctCount > totalCount {
		return nil, ErrInvalidInput
	}
	percentage := 100 * float64(correctCount) / float64(totalCount)
	scaled := scalePercentage(percentage)
	return &ScaledResult{
		CorrectCount:    correctCount,
		ScaledScore:     scaled,
		Passed:          scaled >= PassMark,
		PercentageScore: percentage,
	}, nil
}

// WeightedScaledScore is the official pass/fail score. Each result is
// weighted by (100 - angoffScore) + 10 so statistically harder questions
// carry proportionally more weight; the +10 keeps a 100-Angoff question from
// vanishing. An empty result set returns the band floor.
func WeightedScaledScore(results []QuestionResult) (int, error) {
	if len(results) == 0 {
		return scaledFloor, nil
	}
	if err := ValidateResults(results); err != nil {
		return 0, err
	}
	var earned, totalWeight float64
	for _, r := range results {
		weight := (100 - r.AngoffScore) + angoffWeightMin
		totalWeight += weight
		if r.Correct {
			earned += 100 * weight
		}
	}
	weightedPercentage := earned / totalWeight
	return scalePercentage(weightedPercentage), nil
}

// RawScore is the rounded percentage of correct answers, for display only.
func RawScore(results []QuestionResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	if err := ValidateResults(results); err != nil {
		return 0, err
	}
	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(len(results)))), nil
}

func ScaledPassStatus(scaledScore int) PassStatus {
	if scaledScore >= PassMark {
		return Pass
	}
	return Fail
}

// ConfidenceLevel measures how evenly a candidate performs across difficulty
// bands. Accuracy is averaged per band, not per question, so a band with few
// questions counts as much as a crowded one; variance across band accuracies
// discounts uneven performance.
func ConfidenceLevel(results []QuestionResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	if err := ValidateResults(results); err != nil {
		return 0, err
	}

	type bandCount struct {
		correct int
		total   int
	}
	bands := make(map[content.Difficulty]*bandCount)
	for _, r := range results {
		b := bands[r.Difficulty]
		if b == nil {
			b = &bandCount{}
			bands[r.Difficulty] = b
		}
		b.total++
		if r.Correct {
			b.correct++
		}
	}

	accuracies := make([]float64, 0, len(bands))
	for _, b := range bands {
		accuracies = append(accuracies, float64(b.correct)/float64(b.total))
	}

	mean := 0.0
	for _, a := range accuracies {
		mean += a
	}
	mean /= float64(len(accuracies))

	variance := 0.0
	for _, a := range accuracies {
		d := a - mean
		variance += d * d
	}
	variance /= float64(len(accuracies))

	consistency := 1 - variance
	if consistency < 0 {
		consistency = 0
	}
	return int(math.Round(mean * consistency * 100)), nil
}

// ValidateResults rejects malformed question results rather than coercing
// them: negative time, Angoff outside 0-100, answer indexes below the
// no-answer sentinel, or a Correct flag inconsistent with the indexes.
func ValidateResults(results []QuestionResult) error {
	for _, r := range results {
		if r.TimeSpentSeconds < 0 {
			return ErrInvalidInput
		}
		if r.AngoffScore < 0 || r.AngoffScore > 100 {
			return ErrInvalidInput
		}
		if r.UserAnswerIndex < NoAnswerIndex || r.CorrectAnswerIndex < 0 {
			return ErrInvalidInput
		}
		if r.Correct != (r.UserAnswerIndex == r.CorrectAnswerIndex) {
			return ErrInvalidInput
		}
	}
	return nil
}

func scalePercentage(percentage float64) int {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	var scaled float64
	if percentage <= passPercentage {
		scaled = scaledFloor + (percentage/passPercentage)*200
	} else {
		scaled = PassMark + ((percentage-passPercentage)/(100-passPercentage))*200
	}
	s := int(math.Round(scaled))
	if s < scaledFloor {
		s = scaledFloor
	}
	if s > scaledCeil {
		s = scaledCeil
	}
	return s
}
