package report

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"sqeprep/internal/content"
	"sqeprep/internal/session"
	"sqeprep/internal/wrongstore"
)

func seededStores(t *testing.T) (*session.MemoryHistory, *wrongstore.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	history := session.NewMemoryHistory()
	if err := history.SaveResult(ctx, session.MockExamResult{
		ID:              "res-1",
		SessionID:       "sess-1",
		CandidateID:     "cand-1",
		Module:          content.ModuleFLK1,
		RawScore:        72,
		ScaledScore:     340,
		PassStatus:      "pass",
		ConfidenceLevel: 65,
		CompletedAt:     time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC),
		TotalQuestions:  45,
		CorrectAnswers:  32,
		PercentageScore: 71.1,
	}); err != nil {
		t.Fatalf("SaveResult returned error: %v", err)
	}

	wrongs := wrongstore.NewMemoryStore()
	if err := wrongs.RecordIncorrect(ctx, "cand-1", wrongstore.IncorrectAttempt{
		QuestionID:    "FLK1-007",
		UserAnswer:    2,
		CorrectAnswer: 0,
		Difficulty:    content.DifficultyAdvanced,
		Topic:         "Tort",
	}); err != nil {
		t.Fatalf("RecordIncorrect returned error: %v", err)
	}
	return history, wrongs
}

func TestExportCandidateWorkbook(t *testing.T) {
	history, wrongs := seededStores(t)
	svc := NewService(history, wrongs)

	data, err := svc.ExportCandidateWorkbook(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("ExportCandidateWorkbook returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a readable workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Results", "G2")
	if err != nil {
		t.Fatalf("GetCellValue returned error: %v", err)
	}
	if got != "340" {
		t.Fatalf("scaled score cell = %q, want 340", got)
	}

	got, err = f.GetCellValue("Wrong Questions", "A2")
	if err != nil {
		t.Fatalf("GetCellValue returned error: %v", err)
	}
	if got != "FLK1-007" {
		t.Fatalf("wrong-question cell = %q, want FLK1-007", got)
	}
}

func TestExportCandidateWorkbookEmptyCandidate(t *testing.T) {
	svc := NewService(session.NewMemoryHistory(), wrongstore.NewMemoryStore())

	data, err := svc.ExportCandidateWorkbook(context.Background(), "cand-without-history")
	if err != nil {
		t.Fatalf("ExportCandidateWorkbook returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty history should still produce a workbook with headers")
	}
}

func TestExportHandler(t *testing.T) {
	history, wrongs := seededStores(t)
	h := NewHandler(NewService(history, wrongs))

	r := chi.NewRouter()
	r.Get("/candidates/{candidateID}/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/candidates/cand-1/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q, want xlsx", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="cand-1-progress.xlsx"` {
		t.Fatalf("content disposition = %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("response body should carry the workbook bytes")
	}
}
