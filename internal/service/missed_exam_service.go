package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
)

// MissedExamService handles requests from students who missed their window.
type MissedExamService struct {
	tx          Transactor
	exams       ExamStore
	enrollments EnrollmentStore
	schedules   ScheduleStore
	attempts    AttemptStore
	requests    MissedExamStore
	window      WindowEvaluator
	clock       clock.Clock
	log         zerolog.Logger
}

// NewMissedExamService creates a new MissedExamService.
func NewMissedExamService(
	tx Transactor,
	exams ExamStore,
	enrollments EnrollmentStore,
	schedules ScheduleStore,
	attempts AttemptStore,
	requests MissedExamStore,
	window WindowEvaluator,
	clk clock.Clock,
	log zerolog.Logger,
) *MissedExamService {
	return &MissedExamService{
		tx:          tx,
		exams:       exams,
		enrollments: enrollments,
		schedules:   schedules,
		attempts:    attempts,
		requests:    requests,
		window:      window,
		clock:       clk,
		log:         log.With().Str("component", "missed_exam_service").Logger(),
	}
}

// Submit files a missed-exam request for an enrolled student. The student's window (their schedule,
// else the exam's own window) must have fully elapsed with no attempt. A
// duplicate request returns false without error.
func (s *MissedExamService) Submit(ctx context.Context, studentID int, examID uuid.UUID, reason string) (bool, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return false, notFound(err, ErrExamNotFound, "get exam")
	}
	if err := s.requireEnrolled(ctx, studentID, exam.CourseID); err != nil {
		return false, err
	}

	end, err := s.windowEnd(ctx, exam, studentID)
	if err != nil {
		return false, err
	}
	if !s.clock.Now().After(end) {
		return false, ErrWindowNotElapsed
	}

	taken, err := s.attempts.ExistsForStudentExam(ctx, examID, studentID)
	if err != nil {
		return false, fmt.Errorf("check attempts: %w", err)
	}
	if taken {
		return false, ErrAttemptRecorded
	}

	req := &model.MissedExamRequest{
		ExamID:    examID,
		StudentID: studentID,
		Reason:    strings.TrimSpace(reason),
		Status:    model.RequestStatusPending,
	}
	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	if created {
		s.log.Info().
			Str("exam_id", examID.String()).
			Int("student_id", studentID).
			Msg("Missed exam request submitted")
	}
	return created, nil
}

func (s *MissedExamService) windowEnd(ctx context.Context, exam *model.Exam, studentID int) (time.Time, error) {
	sched, err := s.schedules.GetByStudentExam(ctx, exam.ID, studentID)
	switch {
	case err == nil:
		win, err := s.window.WindowFor(sched, exam)
		if err != nil {
			return time.Time{}, err
		}
		return win.End, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return time.Time{}, fmt.Errorf("get schedule: %w", err)
	case exam.ScheduledEnd != nil:
		return *exam.ScheduledEnd, nil
	default:
		return time.Time{}, ErrNoSchedule
	}
}

// Approve resolves a pending request by giving the student a new window. Only
// the requesting student's schedule is rewritten.
func (s *MissedExamService) Approve(ctx context.Context, instructorID int, requestID uuid.UUID, newStart, newEnd time.Time) (*model.MissedExamRequest, error) {
	if !newEnd.After(newStart) {
		return nil, ErrInvalidWindow
	}

	var resolved *model.MissedExamRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, exam, err := s.pendingOwned(ctx, instructorID, requestID)
		if err != nil {
			return err
		}
		if err := s.requireEnrolled(ctx, req.StudentID, exam.CourseID); err != nil {
			return err
		}
		if err := s.tx.Lock(ctx, config.CacheKey.AttemptLockKey(req.ExamID.String(), req.StudentID)); err != nil {
			return err
		}

		end := newEnd
		assignedBy := instructorID
		sched := &model.ExamSchedule{
			ExamID:        req.ExamID,
			StudentID:     req.StudentID,
			ScheduledDate: newStart,
			Session:       model.SessionCustom,
			WindowEnd:     &end,
			IsAssigned:    true,
			AssignedBy:    &assignedBy,
		}
		if err := s.schedules.Upsert(ctx, sched); err != nil {
			return fmt.Errorf("upsert schedule: %w", err)
		}

		now := s.clock.Now()
		start := newStart
		req.Status = model.RequestStatusApproved
		req.NewStart = &start
		req.NewEnd = &end
		req.ResolvedBy = &assignedBy
		req.ResolvedAt = &now
		if err := s.requests.Resolve(ctx, req); err != nil {
			return fmt.Errorf("resolve request: %w", err)
		}
		resolved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", requestID.String()).
		Time("new_start", newStart).
		Time("new_end", newEnd).
		Msg("Missed exam request approved")
	return resolved, nil
}

// Reject resolves a pending request with a mandatory response.
func (s *MissedExamService) Reject(ctx context.Context, instructorID int, requestID uuid.UUID, response string) (*model.MissedExamRequest, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, fmt.Errorf("%w: rejection response is required", ErrInvalidState)
	}

	var resolved *model.MissedExamRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, _, err := s.pendingOwned(ctx, instructorID, requestID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		resolvedBy := instructorID
		req.Status = model.RequestStatusRejected
		req.InstructorResponse = &response
		req.ResolvedBy = &resolvedBy
		req.ResolvedAt = &now
		if err := s.requests.Resolve(ctx, req); err != nil {
			return fmt.Errorf("resolve request: %w", err)
		}
		resolved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("request_id", requestID.String()).Msg("Missed exam request rejected")
	return resolved, nil
}

func (s *MissedExamService) pendingOwned(ctx context.Context, instructorID int, requestID uuid.UUID) (*model.MissedExamRequest, *model.Exam, error) {
	req, err := s.requests.GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, nil, notFound(err, ErrRequestNotFound, "get request")
	}
	exam, err := s.exams.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, nil, ErrNotOwned
	}
	if req.Status != model.RequestStatusPending {
		return nil, nil, ErrRequestResolved
	}
	return req, exam, nil
}

func (s *MissedExamService) requireEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) error {
	enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// ListPending lists unresolved requests on the instructor's exams.
func (s *MissedExamService) ListPending(ctx context.Context, instructorID int) ([]model.MissedExamRequest, error) {
	reqs, err := s.requests.ListPendingByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []model.MissedExamRequest{}
	}
	return reqs, nil
}

// ListByStudent lists a student's requests.
func (s *MissedExamService) ListByStudent(ctx context.Context, studentID int) ([]model.MissedExamRequest, error) {
	reqs, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []model.MissedExamRequest{}
	}
	return reqs, nil
}
