package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
)

// ScheduleService assigns students to concrete exam sittings.
type ScheduleService struct {
	tx          Transactor
	exams       ExamStore
	schedules   ScheduleStore
	attempts    AttemptStore
	enrollments EnrollmentStore
	awarder     AchievementAwarder
	window      WindowEvaluator
	clock       clock.Clock
	log         zerolog.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	tx Transactor,
	exams ExamStore,
	schedules ScheduleStore,
	attempts AttemptStore,
	enrollments EnrollmentStore,
	awarder AchievementAwarder,
	window WindowEvaluator,
	clk clock.Clock,
	log zerolog.Logger,
) *ScheduleService {
	return &ScheduleService{
		tx:          tx,
		exams:       exams,
		schedules:   schedules,
		attempts:    attempts,
		enrollments: enrollments,
		awarder:     awarder,
		window:      window,
		clock:       clk,
		log:         log.With().Str("component", "schedule_service").Logger(),
	}
}

// ParseDate parses a YYYY-MM-DD date as local midnight.
func (s *ScheduleService) ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, raw, s.window.location())
}

// Assign schedules one student. An existing schedule is overwritten in place.
func (s *ScheduleService) Assign(ctx context.Context, instructorID, studentID int, examID uuid.UUID, date time.Time, session model.ExamSession) (*model.ExamSchedule, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}
	return s.assign(ctx, exam, instructorID, studentID, date, session)
}

func (s *ScheduleService) assign(ctx context.Context, exam *model.Exam, instructorID, studentID int, date time.Time, session model.ExamSession) (*model.ExamSchedule, error) {
	enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, exam.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	day := s.window.StartOfDay(date)
	if day.Before(s.window.StartOfDay(s.clock.Now())) {
		return nil, ErrPastDate
	}
	if !session.Assignable() {
		return nil, ErrInvalidSession
	}

	assignedBy := instructorID
	sched := &model.ExamSchedule{
		ExamID:        exam.ID,
		StudentID:     studentID,
		ScheduledDate: day,
		Session:       session,
		IsAssigned:    true,
		AssignedBy:    &assignedBy,
	}
	if err := s.schedules.Upsert(ctx, sched); err != nil {
		return nil, fmt.Errorf("upsert schedule: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("student_id", studentID).
		Str("session", string(session)).
		Time("date", day).
		Msg("Schedule assigned")
	return sched, nil
}

// BulkAssign schedules every enrolled student of the exam's course that has no
// schedule yet. Individual failures are collected, not fatal.
func (s *ScheduleService) BulkAssign(ctx context.Context, instructorID int, examID uuid.UUID, date time.Time, session model.ExamSession) (*model.BulkAssignResult, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}

	studentIDs, err := s.enrollments.ListStudentIDs(ctx, exam.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	existing, err := s.schedules.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	scheduled := make(map[int]struct{}, len(existing))
	for _, sc := range existing {
		scheduled[sc.StudentID] = struct{}{}
	}

	result := &model.BulkAssignResult{Failures: map[int]string{}}
	for _, studentID := range studentIDs {
		if _, ok := scheduled[studentID]; ok {
			continue
		}
		result.Total++
		if _, err := s.assign(ctx, exam, instructorID, studentID, date, session); err != nil {
			result.Failures[studentID] = err.Error()
			s.log.Warn().Err(err).Int("student_id", studentID).Msg("Bulk assign skipped student")
			continue
		}
		result.Assigned++
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("assigned", result.Assigned).
		Int("total", result.Total).
		Msg("Bulk assign finished")
	return result, nil
}

// Unassign removes a schedule. Schedules that an attempt was started against
// cannot be removed.
func (s *ScheduleService) Unassign(ctx context.Context, instructorID int, scheduleID uuid.UUID) error {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return notFound(err, ErrScheduleNotFound, "get schedule")
	}
	exam, err := s.exams.GetByID(ctx, sched.ExamID)
	if err != nil {
		return notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return ErrNotOwned
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, config.CacheKey.AttemptLockKey(sched.ExamID.String(), sched.StudentID)); err != nil {
			return err
		}
		exists, err := s.attempts.ExistsForStudentExam(ctx, sched.ExamID, sched.StudentID)
		if err != nil {
			return fmt.Errorf("check attempts: %w", err)
		}
		if exists {
			return ErrAttemptInProgress
		}
		if err := s.schedules.Delete(ctx, scheduleID); err != nil {
			return fmt.Errorf("delete schedule: %w", err)
		}
		s.log.Info().Str("schedule_id", scheduleID.String()).Msg("Schedule removed")
		return nil
	})
}

// AutoAssign schedules a student for the course's approved, active exam at the
// exam's own start time. It returns the existing schedule when there is one.
func (s *ScheduleService) AutoAssign(ctx context.Context, studentID int, courseID uuid.UUID) (*model.ExamSchedule, bool, error) {
	exam, err := s.exams.GetActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, false, notFound(err, ErrNoExamForCourse, "get course exam")
	}
	if exam.ScheduledStart == nil {
		return nil, false, ErrExamNotScheduled
	}

	sched := &model.ExamSchedule{
		ExamID:        exam.ID,
		StudentID:     studentID,
		ScheduledDate: *exam.ScheduledStart,
		Session:       model.SessionAuto,
		IsAssigned:    true,
	}
	created, err := s.schedules.InsertIfAbsent(ctx, sched)
	if err != nil {
		return nil, false, fmt.Errorf("insert schedule: %w", err)
	}
	if !created {
		existing, err := s.schedules.GetByStudentExam(ctx, exam.ID, studentID)
		if err != nil {
			return nil, false, notFound(err, ErrScheduleNotFound, "get schedule")
		}
		return existing, false, nil
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("student_id", studentID).
		Msg("Schedule auto-assigned")
	return sched, true, nil
}

// CompleteCourse records a course completion reported by the catalog, then
// runs the completion hook.
func (s *ScheduleService) CompleteCourse(ctx context.Context, studentID int, courseID uuid.UUID) (*model.ExamSchedule, error) {
	enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	if err := s.enrollments.MarkCompleted(ctx, studentID, courseID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	return s.OnCourseCompleted(ctx, studentID, courseID)
}

// OnCourseCompleted auto-schedules the course exam and evaluates course
// achievements. A course without a schedulable exam only awards achievements.
func (s *ScheduleService) OnCourseCompleted(ctx context.Context, studentID int, courseID uuid.UUID) (*model.ExamSchedule, error) {
	completed, err := s.enrollments.IsCompleted(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check completion: %w", err)
	}
	if !completed {
		return nil, ErrCourseNotCompleted
	}

	sched, _, err := s.AutoAssign(ctx, studentID, courseID)
	if err != nil && !errors.Is(err, ErrNoExamForCourse) && !errors.Is(err, ErrExamNotScheduled) {
		return nil, err
	}
	if err != nil {
		s.log.Info().Err(err).Str("course_id", courseID.String()).Msg("Course completed without exam schedule")
	}

	if _, err := s.awarder.Evaluate(ctx, studentID, &courseID, nil); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Achievement evaluation failed")
	}
	return sched, nil
}

// ListForStudent returns a student's schedules with their resolved windows.
func (s *ScheduleService) ListForStudent(ctx context.Context, studentID int) ([]model.ScheduleView, error) {
	schedules, err := s.schedules.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return s.views(ctx, schedules)
}

// ListForExam returns the schedules of an exam owned by the instructor.
func (s *ScheduleService) ListForExam(ctx context.Context, instructorID int, examID uuid.UUID) ([]model.ScheduleView, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}
	schedules, err := s.schedules.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return s.views(ctx, schedules)
}

func (s *ScheduleService) views(ctx context.Context, schedules []model.ExamSchedule) ([]model.ScheduleView, error) {
	exams := make(map[uuid.UUID]*model.Exam)
	views := make([]model.ScheduleView, 0, len(schedules))
	for _, sc := range schedules {
		exam, ok := exams[sc.ExamID]
		if !ok {
			e, err := s.exams.GetByID(ctx, sc.ExamID)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get exam: %w", err)
			}
			exams[sc.ExamID] = e
			exam = e
		}
		win, err := s.window.WindowFor(&sc, exam)
		if err != nil {
			return nil, err
		}
		views = append(views, model.ScheduleView{
			ExamSchedule: sc,
			ExamTitle:    exam.Title,
			WindowStart:  win.Start,
			WindowClose:  win.End,
		})
	}
	return views, nil
}
