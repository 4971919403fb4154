package wrongstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sqeprep/internal/content"
)

// SQLStore is the database-backed Store. The upsert keeps the attempts
// counter monotonic under a retry race; both the pgx and modernc sqlite
// drivers accept the $n placeholders and ON CONFLICT form used here.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) RecordIncorrect(ctx context.Context, candidateID string, a IncorrectAttempt) error {
	if candidateID == "" {
		return ErrInvalidInput
	}
	if err := validateAttempt(a); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wrong_questions (
			candidate_id, question_id, user_answer, correct_answer,
			attempts, last_attempt_correct, difficulty, topic, updated_at
		) VALUES ($1, $2, $3, $4, 1, FALSE, $5, $6, $7)
		ON CONFLICT (candidate_id, question_id)
		DO UPDATE SET
			attempts = wrong_questions.attempts + 1,
			user_answer = EXCLUDED.user_answer,
			last_attempt_correct = FALSE,
			updated_at = EXCLUDED.updated_at
	`, candidateID, a.QuestionID, a.UserAnswer, a.CorrectAnswer, string(a.Difficulty), a.Topic, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert wrong question: %w", err)
	}
	return nil
}

func (s *SQLStore) MarkCorrect(ctx context.Context, candidateID, questionID string) error {
	if candidateID == "" || questionID == "" {
		return ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE wrong_questions
		SET last_attempt_correct = TRUE,
			updated_at = $3
		WHERE candidate_id = $1 AND question_id = $2
	`, candidateID, questionID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("mark wrong question correct: %w", err)
	}
	return nil
}

func (s *SQLStore) ActiveWrongQuestions(ctx context.Context, candidateID string, f Filter) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, user_answer, correct_answer, attempts,
			last_attempt_correct, difficulty, topic, updated_at
		FROM wrong_questions
		WHERE candidate_id = $1 AND last_attempt_correct = FALSE
		ORDER BY updated_at DESC, question_id ASC
	`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("query wrong questions: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var difficulty string
		var updatedAt int64
		if err := rows.Scan(&e.QuestionID, &e.UserAnswer, &e.CorrectAnswer, &e.Attempts,
			&e.LastAttemptCorrect, &difficulty, &e.Topic, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan wrong question: %w", err)
		}
		e.Difficulty = content.Difficulty(difficulty)
		e.Timestamp = time.Unix(updatedAt, 0)
		if matches(e, f) {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wrong questions: %w", err)
	}
	return out, nil
}

// Attempts returns the attempt counter for one entry, or zero when the
// candidate never missed the question. Used by remediation views.
func (s *SQLStore) Attempts(ctx context.Context, candidateID, questionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT attempts FROM wrong_questions
		WHERE candidate_id = $1 AND question_id = $2
	`, candidateID, questionID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load attempts: %w", err)
	}
	return n, nil
}
