package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

const missedExamColumns = `m.id, m.exam_id, m.student_id, m.reason, m.status, m.instructor_response,
	m.new_start, m.new_end, m.resolved_by, m.resolved_at, m.created_at`

// MissedExamRepository handles missed-exam requests.
type MissedExamRepository struct {
	pool *pgxpool.Pool
}

// NewMissedExamRepository creates a new MissedExamRepository.
func NewMissedExamRepository(pool *pgxpool.Pool) *MissedExamRepository {
	return &MissedExamRepository{pool: pool}
}

func scanMissedExam(row rowScanner, m *model.MissedExamRequest) error {
	return row.Scan(&m.ID, &m.ExamID, &m.StudentID, &m.Reason, &m.Status, &m.InstructorResponse,
		&m.NewStart, &m.NewEnd, &m.ResolvedBy, &m.ResolvedAt, &m.CreatedAt)
}

// Create inserts a request. It reports false when the student already filed
// one for the exam.
func (r *MissedExamRepository) Create(ctx context.Context, m *model.MissedExamRequest) (bool, error) {
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO missed_exam_requests (exam_id, student_id, reason, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, created_at`,
		m.ExamID, m.StudentID, m.Reason, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetForUpdate retrieves a request and row-locks it until the transaction ends.
func (r *MissedExamRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.MissedExamRequest, error) {
	m := &model.MissedExamRequest{}
	row := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+missedExamColumns+` FROM missed_exam_requests m WHERE m.id = $1 FOR UPDATE`, id)
	if err := scanMissedExam(row, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Resolve writes the decision of a request.
func (r *MissedExamRepository) Resolve(ctx context.Context, m *model.MissedExamRequest) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE missed_exam_requests
		 SET status = $1, instructor_response = $2, new_start = $3, new_end = $4,
		     resolved_by = $5, resolved_at = $6
		 WHERE id = $7`,
		m.Status, m.InstructorResponse, m.NewStart, m.NewEnd, m.ResolvedBy, m.ResolvedAt, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListPendingByInstructor lists pending requests on the instructor's exams.
func (r *MissedExamRepository) ListPendingByInstructor(ctx context.Context, instructorID int) ([]model.MissedExamRequest, error) {
	return r.list(ctx,
		`SELECT `+missedExamColumns+` FROM missed_exam_requests m
		 JOIN exams e ON e.id = m.exam_id
		 WHERE e.instructor_id = $1 AND m.status = $2
		 ORDER BY m.created_at`, instructorID, model.RequestStatusPending)
}

// ListByStudent lists a student's requests, newest first.
func (r *MissedExamRepository) ListByStudent(ctx context.Context, studentID int) ([]model.MissedExamRequest, error) {
	return r.list(ctx,
		`SELECT `+missedExamColumns+` FROM missed_exam_requests m
		 WHERE m.student_id = $1 ORDER BY m.created_at DESC`, studentID)
}

func (r *MissedExamRepository) list(ctx context.Context, query string, args ...any) ([]model.MissedExamRequest, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.MissedExamRequest
	for rows.Next() {
		var m model.MissedExamRequest
		if err := scanMissedExam(rows, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
