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

// CourseRepository reads courses.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// GetByID retrieves a course by its UUID.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	c := &model.Course{}
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, title, instructor_id FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.InstructorID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EnrollmentRepository handles enrollment data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// IsEnrolled reports whether the student has any enrollment in the course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var ok bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)`,
		studentID, courseID,
	).Scan(&ok)
	return ok, err
}

// IsCompleted reports whether the student completed the course.
func (r *EnrollmentRepository) IsCompleted(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var ok bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM enrollments
		     WHERE student_id = $1 AND course_id = $2 AND status = $3)`,
		studentID, courseID, model.EnrollmentStatusCompleted,
	).Scan(&ok)
	return ok, err
}

// MarkCompleted flips an enrollment to COMPLETED. Completing twice keeps the
// first completion time.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, studentID int, courseID uuid.UUID, at time.Time) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE enrollments
		 SET status = $1, completed_at = COALESCE(completed_at, $2)
		 WHERE student_id = $3 AND course_id = $4`,
		model.EnrollmentStatusCompleted, at, studentID, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListStudentIDs returns every student enrolled in the course.
func (r *EnrollmentRepository) ListStudentIDs(ctx context.Context, courseID uuid.UUID) ([]int, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT student_id FROM enrollments WHERE course_id = $1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}
