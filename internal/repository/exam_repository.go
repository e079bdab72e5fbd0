package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

const examColumns = `id, course_id, instructor_id, title, total_marks, part_a_marks, part_b_marks,
	internal_marks, passing_percentage, duration_minutes, approval_status, is_active,
	scheduled_start, scheduled_end, created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row rowScanner, e *model.Exam) error {
	return row.Scan(&e.ID, &e.CourseID, &e.InstructorID, &e.Title, &e.TotalMarks, &e.PartAMarks,
		&e.PartBMarks, &e.InternalMarks, &e.PassingPercentage, &e.DurationMinutes, &e.ApprovalStatus,
		&e.IsActive, &e.ScheduledStart, &e.ScheduledEnd, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	row := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetActiveByCourse returns the most recent approved, active exam of a course.
func (r *ExamRepository) GetActiveByCourse(ctx context.Context, courseID uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	row := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE course_id = $1 AND approval_status = $2 AND is_active
		 ORDER BY created_at DESC
		 LIMIT 1`, courseID, model.ApprovalStatusApproved)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByInstructor retrieves exams filtered by instructor with pagination.
// Pass instructorID=0 to list all exams (admin).
func (r *ExamRepository) ListByInstructor(ctx context.Context, instructorID, limit, offset int) ([]model.Exam, int, error) {
	q := database.Conn(ctx, r.pool)

	// 1. Get total count
	where := ""
	var args []any
	if instructorID > 0 {
		where = ` WHERE instructor_id = $1`
		args = append(args, instructorID)
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM exams`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get paginated data
	query := `SELECT ` + examColumns + ` FROM exams` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO exams (course_id, instructor_id, title, total_marks, part_a_marks, part_b_marks,
		                    internal_marks, passing_percentage, duration_minutes, approval_status,
		                    is_active, scheduled_start, scheduled_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		e.CourseID, e.InstructorID, e.Title, e.TotalMarks, e.PartAMarks, e.PartBMarks,
		e.InternalMarks, e.PassingPercentage, e.DurationMinutes, e.ApprovalStatus,
		e.IsActive, e.ScheduledStart, e.ScheduledEnd,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// UpdateApproval records an admin review decision.
func (r *ExamRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE exams SET approval_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
