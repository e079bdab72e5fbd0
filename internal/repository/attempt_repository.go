package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

const attemptColumns = `a.id, a.exam_id, a.student_id, a.schedule_id, a.original_attempt_id,
	a.question_order, a.started_at, a.part_a_score, a.part_b_score, a.internal_score,
	a.total_score, a.percentage, a.is_passed, a.part_a_completed, a.part_b_completed,
	a.internal_assigned, a.is_completed, a.completed_at, a.graded_by, a.graded_at,
	a.publish_due_at, a.result_published, a.result_published_at`

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row rowScanner, a *model.ExamAttempt) error {
	return row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.ScheduleID, &a.OriginalAttemptID,
		&a.QuestionOrder, &a.StartedAt, &a.PartAScore, &a.PartBScore, &a.InternalScore,
		&a.TotalScore, &a.Percentage, &a.IsPassed, &a.PartACompleted, &a.PartBCompleted,
		&a.InternalAssigned, &a.IsCompleted, &a.CompletedAt, &a.GradedBy, &a.GradedAt,
		&a.PublishDueAt, &a.ResultPublished, &a.ResultPublishedAt)
}

func (r *AttemptRepository) getOne(ctx context.Context, query string, args ...any) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	if err := scanAttempt(database.Conn(ctx, r.pool).QueryRow(ctx, query, args...), a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamAttempt, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Create inserts a new attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	return database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_id, schedule_id, original_attempt_id, question_order, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.ExamID, a.StudentID, a.ScheduleID, a.OriginalAttemptID, a.QuestionOrder, a.StartedAt,
	).Scan(&a.ID)
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return r.getOne(ctx, `SELECT `+attemptColumns+` FROM exam_attempts a WHERE a.id = $1`, id)
}

// GetForUpdate retrieves an attempt and row-locks it until the transaction ends.
func (r *AttemptRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return r.getOne(ctx, `SELECT `+attemptColumns+` FROM exam_attempts a WHERE a.id = $1 FOR UPDATE`, id)
}

// GetOpen retrieves the student's uncompleted attempt of an exam.
func (r *AttemptRepository) GetOpen(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	return r.getOne(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts a
		 WHERE a.exam_id = $1 AND a.student_id = $2 AND NOT a.is_completed`, examID, studentID)
}

// GetByOriginal retrieves the re-exam created for a failed attempt.
func (r *AttemptRepository) GetByOriginal(ctx context.Context, originalID uuid.UUID) (*model.ExamAttempt, error) {
	return r.getOne(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts a WHERE a.original_attempt_id = $1`, originalID)
}

// ExistsForStudentExam reports whether the student has any attempt of the exam.
func (r *AttemptRepository) ExistsForStudentExam(ctx context.Context, examID uuid.UUID, studentID int) (bool, error) {
	var ok bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_attempts WHERE exam_id = $1 AND student_id = $2)`,
		examID, studentID,
	).Scan(&ok)
	return ok, err
}

// Update writes every mutable column of an attempt.
func (r *AttemptRepository) Update(ctx context.Context, a *model.ExamAttempt) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE exam_attempts
		 SET part_a_score = $1, part_b_score = $2, internal_score = $3, total_score = $4,
		     percentage = $5, is_passed = $6, part_a_completed = $7, part_b_completed = $8,
		     internal_assigned = $9, is_completed = $10, completed_at = $11, graded_by = $12,
		     graded_at = $13, publish_due_at = $14, result_published = $15, result_published_at = $16
		 WHERE id = $17`,
		a.PartAScore, a.PartBScore, a.InternalScore, a.TotalScore,
		a.Percentage, a.IsPassed, a.PartACompleted, a.PartBCompleted,
		a.InternalAssigned, a.IsCompleted, a.CompletedAt, a.GradedBy,
		a.GradedAt, a.PublishDueAt, a.ResultPublished, a.ResultPublishedAt,
		a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByStudent lists a student's attempts, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts a
		 WHERE a.student_id = $1 ORDER BY a.started_at DESC`, studentID)
}

// ListPendingInternal lists completed attempts of the instructor's exams that
// still wait for internal marks.
func (r *AttemptRepository) ListPendingInternal(ctx context.Context, instructorID int) ([]model.ExamAttempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE e.instructor_id = $1 AND a.is_completed AND NOT a.internal_assigned
		 ORDER BY a.completed_at`, instructorID)
}

// ListDueForPublication returns graded, unpublished attempts whose publication
// is due at now.
func (r *AttemptRepository) ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT id FROM exam_attempts
		 WHERE internal_assigned AND NOT result_published AND publish_due_at <= $1
		 ORDER BY publish_due_at
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}
