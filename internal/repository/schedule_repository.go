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

const scheduleColumns = `id, exam_id, student_id, scheduled_date, session, window_end,
	is_assigned, assigned_by, created_at, updated_at`

// ScheduleRepository handles per-student exam schedules.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func scanSchedule(row rowScanner, s *model.ExamSchedule) error {
	return row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.ScheduledDate, &s.Session, &s.WindowEnd,
		&s.IsAssigned, &s.AssignedBy, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a schedule by its UUID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSchedule, error) {
	s := &model.ExamSchedule{}
	row := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules WHERE id = $1`, id)
	if err := scanSchedule(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByStudentExam retrieves the student's schedule for an exam.
func (r *ScheduleRepository) GetByStudentExam(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSchedule, error) {
	s := &model.ExamSchedule{}
	row := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID)
	if err := scanSchedule(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert inserts the (exam, student) schedule or overwrites it in place,
// keeping its id.
func (r *ScheduleRepository) Upsert(ctx context.Context, s *model.ExamSchedule) error {
	return database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO exam_schedules (exam_id, student_id, scheduled_date, session, window_end, is_assigned, assigned_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET scheduled_date = EXCLUDED.scheduled_date,
		     session        = EXCLUDED.session,
		     window_end     = EXCLUDED.window_end,
		     is_assigned    = EXCLUDED.is_assigned,
		     assigned_by    = EXCLUDED.assigned_by,
		     updated_at     = NOW()
		 RETURNING id, created_at, updated_at`,
		s.ExamID, s.StudentID, s.ScheduledDate, s.Session, s.WindowEnd, s.IsAssigned, s.AssignedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// InsertIfAbsent inserts the schedule unless the student already has one for
// the exam. It reports whether a row was inserted.
func (r *ScheduleRepository) InsertIfAbsent(ctx context.Context, s *model.ExamSchedule) (bool, error) {
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO exam_schedules (exam_id, student_id, scheduled_date, session, window_end, is_assigned, assigned_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		s.ExamID, s.StudentID, s.ScheduledDate, s.Session, s.WindowEnd, s.IsAssigned, s.AssignedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM exam_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByExam lists every schedule of an exam.
func (r *ScheduleRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules
		 WHERE exam_id = $1 ORDER BY scheduled_date, student_id`, examID)
}

// ListByStudent lists every schedule of a student.
func (r *ScheduleRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules
		 WHERE student_id = $1 ORDER BY scheduled_date`, studentID)
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamSchedule, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ExamSchedule
	for rows.Next() {
		var s model.ExamSchedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
