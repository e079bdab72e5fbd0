package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

// QuestionRepository handles exam question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam returns every question of an exam with its options.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamQuestion, error) {
	return r.list(ctx,
		`SELECT id, exam_id, part, question_text, points, order_num
		 FROM exam_questions WHERE exam_id = $1
		 ORDER BY part, order_num, id`, examID)
}

// ListByExamPart returns the questions of one part with their options.
func (r *QuestionRepository) ListByExamPart(ctx context.Context, examID uuid.UUID, part model.ExamPart) ([]model.ExamQuestion, error) {
	return r.list(ctx,
		`SELECT id, exam_id, part, question_text, points, order_num
		 FROM exam_questions WHERE exam_id = $1 AND part = $2
		 ORDER BY order_num, id`, examID, part)
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamQuestion, error) {
	q := database.Conn(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.ExamQuestion
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var eq model.ExamQuestion
		if err := rows.Scan(&eq.ID, &eq.ExamID, &eq.Part, &eq.QuestionText, &eq.Points, &eq.OrderNum); err != nil {
			return nil, err
		}
		index[eq.ID] = len(questions)
		questions = append(questions, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]uuid.UUID, 0, len(questions))
	for _, eq := range questions {
		ids = append(ids, eq.ID)
	}

	optRows, err := q.Query(ctx,
		`SELECT id, question_id, option_text, is_correct, order_num
		 FROM exam_question_options WHERE question_id = ANY($1)
		 ORDER BY question_id, order_num`, ids)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.ExamQuestionOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.OrderNum); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// Create inserts a question and its options. Option ids are generated here so
// the options can be copied in one round trip.
func (r *QuestionRepository) Create(ctx context.Context, eq *model.ExamQuestion) error {
	q := database.Conn(ctx, r.pool)

	err := q.QueryRow(ctx,
		`INSERT INTO exam_questions (exam_id, part, question_text, points, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		eq.ExamID, eq.Part, eq.QuestionText, eq.Points, eq.OrderNum,
	).Scan(&eq.ID)
	if err != nil {
		return err
	}
	if len(eq.Options) == 0 {
		return nil
	}

	for i := range eq.Options {
		eq.Options[i].ID = uuid.New()
		eq.Options[i].QuestionID = eq.ID
	}
	_, err = q.CopyFrom(ctx,
		pgx.Identifier{"exam_question_options"},
		[]string{"id", "question_id", "option_text", "is_correct", "order_num"},
		pgx.CopyFromSlice(len(eq.Options), func(i int) ([]any, error) {
			o := eq.Options[i]
			return []any{o.ID, o.QuestionID, o.OptionText, o.IsCorrect, o.OrderNum}, nil
		}),
	)
	return err
}
