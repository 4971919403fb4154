package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLHistory stores each result as a JSON row keyed by result and candidate
// id. The full record round-trips through MockExamResult's JSON form so the
// schema does not chase the analysis shape.
type SQLHistory struct {
	db *sql.DB
}

func NewSQLHistory(db *sql.DB) *SQLHistory {
	return &SQLHistory{db: db}
}

func (h *SQLHistory) SaveResult(ctx context.Context, r MockExamResult) error {
	if r.ID == "" || r.CandidateID == "" {
		return ErrInvalidInput
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO exam_results (id, candidate_id, module, scaled_score, pass_status, completed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.CandidateID, string(r.Module), r.ScaledScore, string(r.PassStatus), r.CompletedAt.Unix(), string(payload))
	if err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}
	return nil
}

func (h *SQLHistory) ListResults(ctx context.Context, candidateID string) ([]MockExamResult, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT payload FROM exam_results
		WHERE candidate_id = $1
		ORDER BY completed_at DESC, id ASC
	`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("query exam results: %w", err)
	}
	defer rows.Close()

	out := make([]MockExamResult, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan exam result: %w", err)
		}
		var r MockExamResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode exam result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam results: %w", err)
	}
	return out, nil
}

func (h *SQLHistory) GetResult(ctx context.Context, resultID string) (*MockExamResult, error) {
	var payload string
	err := h.db.QueryRowContext(ctx, `
		SELECT payload FROM exam_results WHERE id = $1
	`, resultID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load exam result: %w", err)
	}
	var r MockExamResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode exam result: %w", err)
	}
	return &r, nil
}
