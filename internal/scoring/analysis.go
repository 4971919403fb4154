package scoring

import (
	"fmt"
	"math"
	"sort"

	"sqeprep/internal/content"
)

// referenceTimeSeconds is the per-question time budget the efficiency figure
// is measured against.
const referenceTimeSeconds = 120.0

const improvementThreshold = 60.0

type BandStat struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type TimeAnalysis struct {
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	Efficiency     float64 `json:"efficiency"`
}

type SQE1Analysis struct {
	CompetencyLevel     string   `json:"competency_level"`
	WeightedScaledScore int      `json:"weighted_scaled_score"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

type Performance struct {
	ByDifficulty    map[content.Difficulty]BandStat `json:"by_difficulty"`
	ByTopic         map[string]BandStat             `json:"by_topic"`
	TimeAnalysis    TimeAnalysis                    `json:"time_analysis"`
	Recommendations []string                        `json:"recommendations"`
	SQE1Analysis    SQE1Analysis                    `json:"sqe1_analysis"`
}

// AnalyzePerformance builds the structured breakdown surfaced after a mock:
// per-difficulty and per-topic accuracy, a time-efficiency figure, ordered
// guidance strings, and the banded competency verdict from the weighted
// scaled score.
func AnalyzePerformance(results []QuestionResult) (*Performance, error) {
	if err := ValidateResults(results); err != nil {
		return nil, err
	}

	byDifficulty := make(map[content.Difficulty]BandStat)
	byTopic := make(map[string]BandStat)
	totalTime := 0.0
	for _, r := range results {
		d := byDifficulty[r.Difficulty]
		d.Total++
		if r.Correct {
			d.Correct++
		}
		byDifficulty[r.Difficulty] = d

		t := byTopic[r.Topic]
		t.Total++
		if r.Correct {
			t.Correct++
		}
		byTopic[r.Topic] = t

		totalTime += r.TimeSpentSeconds
	}
	for k, v := range byDifficulty {
		v.Percentage = percentage(v.Correct, v.Total)
		byDifficulty[k] = v
	}
	for k, v := range byTopic {
		v.Percentage = percentage(v.Correct, v.Total)
		byTopic[k] = v
	}

	avgTime := 0.0
	if len(results) > 0 {
		avgTime = totalTime / float64(len(results))
	}
	efficiency := 100 - (avgTime/referenceTimeSeconds)*100
	if efficiency < 0 {
		efficiency = 0
	}
	timeAnalysis := TimeAnalysis{AvgTimeSeconds: avgTime, Efficiency: efficiency}

	weighted, err := WeightedScaledScore(results)
	if err != nil {
		return nil, err
	}

	return &Performance{
		ByDifficulty:    byDifficulty,
		ByTopic:         byTopic,
		TimeAnalysis:    timeAnalysis,
		Recommendations: buildRecommendations(byDifficulty, timeAnalysis),
		SQE1Analysis: SQE1Analysis{
			CompetencyLevel:     CompetencyLevel(weighted),
			WeightedScaledScore: weighted,
			AreasForImprovement: areasForImprovement(byDifficulty, byTopic),
		},
	}, nil
}

// CompetencyLevel maps a weighted scaled score onto the qualitative feedback
// bands used across the platform.
func CompetencyLevel(weightedScaledScore int) string {
	switch {
	case weightedScaledScore >= 450:
		return "Excellent"
	case weightedScaledScore >= 400:
		return "Very Good"
	case weightedScaledScore >= 350:
		return "Good"
	case weightedScaledScore >= PassMark:
		return "Competent"
	case weightedScaledScore >= 250:
		return "Approaching Competency"
	default:
		return "Below Competency"
	}
}

func buildRecommendations(byDifficulty map[content.Difficulty]BandStat, ta TimeAnalysis) []string {
	recs := make([]string, 0, 6)
	for _, d := range []content.Difficulty{
		content.DifficultyFoundation,
		content.DifficultyIntermediate,
		content.DifficultyAdvanced,
		content.DifficultyExpert,
	} {
		stat, ok := byDifficulty[d]
		if !ok || stat.Percentage >= improvementThreshold {
			continue
		}
		recs = append(recs, fmt.Sprintf(
			"Focus on %s-level questions: %.0f%% accuracy is below the 60%% competency benchmark.",
			d, stat.Percentage))
	}
	if ta.Efficiency < 40 {
		recs = append(recs, fmt.Sprintf(
			"Average answer time of %.0fs is close to the 120s budget; practise timed conditions to build pace.",
			ta.AvgTimeSeconds))
	} else if ta.Efficiency > 90 {
		recs = append(recs,
			"You answer well under the time budget; re-read question stems carefully before committing.")
	}
	return recs
}

func areasForImprovement(byDifficulty map[content.Difficulty]BandStat, byTopic map[string]BandStat) []string {
	areas := make([]string, 0)
	for _, d := range []content.Difficulty{
		content.DifficultyFoundation,
		content.DifficultyIntermediate,
		content.DifficultyAdvanced,
		content.DifficultyExpert,
	} {
		if stat, ok := byDifficulty[d]; ok && stat.Percentage < improvementThreshold {
			areas = append(areas, string(d))
		}
	}
	topics := make([]string, 0, len(byTopic))
	for topic, stat := range byTopic {
		if stat.Percentage < improvementThreshold {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return append(areas, topics...)
}

func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	p := 100 * float64(correct) / float64(total)
	return math.Round(p*100) / 100
}
