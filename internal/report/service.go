package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"sqeprep/internal/session"
	"sqeprep/internal/wrongstore"
)

// Service renders candidate history and the remediation queue as an xlsx
// workbook for download.
type Service struct {
	history session.HistoryStore
	wrongs  wrongstore.Store
}

func NewService(history session.HistoryStore, wrongs wrongstore.Store) *Service {
	return &Service{history: history, wrongs: wrongs}
}

func (s *Service) ExportCandidateWorkbook(ctx context.Context, candidateID string) ([]byte, error) {
	results, err := s.history.ListResults(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	entries, err := s.wrongs.ActiveWrongQuestions(ctx, candidateID, wrongstore.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load wrong questions: %w", err)
	}

	f := excelize.NewFile()
	resultsSheet := f.GetSheetName(0)
	if err := f.SetSheetName(resultsSheet, "Results"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	resultsSheet = "Results"

	headers := []string{"completed_at", "module", "total_questions", "correct_answers", "percentage", "raw_score", "scaled_score", "pass_status", "confidence_level"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}
	for i, res := range results {
		row := i + 2
		values := []any{
			res.CompletedAt.UTC().Format("2006-01-02 15:04:05"),
			string(res.Module),
			res.TotalQuestions,
			res.CorrectAnswers,
			res.PercentageScore,
			res.RawScore,
			res.ScaledScore,
			string(res.PassStatus),
			res.ConfidenceLevel,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}
	}

	wrongSheet := "Wrong Questions"
	if _, err := f.NewSheet(wrongSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	wrongHeaders := []string{"question_id", "topic", "difficulty", "attempts", "user_answer", "correct_answer", "last_seen"}
	for i, h := range wrongHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(wrongSheet, cell, h)
	}
	for i, e := range entries {
		row := i + 2
		values := []any{
			e.QuestionID,
			e.Topic,
			string(e.Difficulty),
			e.Attempts,
			e.UserAnswer,
			e.CorrectAnswer,
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(wrongSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
