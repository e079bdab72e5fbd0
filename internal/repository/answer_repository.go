package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

// AnswerRepository handles per-question answers of an attempt.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ReplacePart deletes the attempt's answers for a part and copies in answers.
// Callers run it inside a transaction.
func (r *AnswerRepository) ReplacePart(ctx context.Context, attemptID uuid.UUID, part model.ExamPart, answers []model.ExamAnswer) error {
	q := database.Conn(ctx, r.pool)

	if _, err := q.Exec(ctx,
		`DELETE FROM exam_answers WHERE attempt_id = $1 AND part = $2`, attemptID, part); err != nil {
		return err
	}
	if len(answers) == 0 {
		return nil
	}

	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"exam_answers"},
		[]string{"attempt_id", "question_id", "part", "selected_option_id", "answer_text", "is_correct", "points"},
		pgx.CopyFromSlice(len(answers), func(i int) ([]any, error) {
			a := answers[i]
			return []any{attemptID, a.QuestionID, part, a.SelectedOptionID, a.AnswerText, a.IsCorrect, a.Points}, nil
		}),
	)
	return err
}

// Upsert writes answers, overwriting the text of existing (attempt, question) rows.
func (r *AnswerRepository) Upsert(ctx context.Context, answers []model.ExamAnswer) error {
	q := database.Conn(ctx, r.pool)
	for _, a := range answers {
		_, err := q.Exec(ctx,
			`INSERT INTO exam_answers (attempt_id, question_id, part, selected_option_id, answer_text, is_correct, points)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (attempt_id, question_id) DO UPDATE
			 SET selected_option_id = EXCLUDED.selected_option_id,
			     answer_text        = EXCLUDED.answer_text`,
			a.AttemptID, a.QuestionID, a.Part, a.SelectedOptionID, a.AnswerText, a.IsCorrect, a.Points)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByAttemptPart lists an attempt's answers for one part.
func (r *AnswerRepository) ListByAttemptPart(ctx context.Context, attemptID uuid.UUID, part model.ExamPart) ([]model.ExamAnswer, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, attempt_id, question_id, part, selected_option_id, answer_text, is_correct, points, created_at
		 FROM exam_answers WHERE attempt_id = $1 AND part = $2
		 ORDER BY created_at, id`, attemptID, part)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ExamAnswer
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Part, &a.SelectedOptionID,
			&a.AnswerText, &a.IsCorrect, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// SetPoints records the graded points of one answer.
func (r *AnswerRepository) SetPoints(ctx context.Context, attemptID, questionID uuid.UUID, points int) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE exam_answers SET points = $1 WHERE attempt_id = $2 AND question_id = $3`,
		points, attemptID, questionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
