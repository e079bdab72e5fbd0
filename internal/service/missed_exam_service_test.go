package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stretchr/testify/require"
)

// afterWindow is one second past the fixture schedule's 09:00-10:00 window.
var afterWindow = time.Date(2026, 3, 2, 10, 0, 1, 0, time.UTC)

func (h *harness) onlyRequest(t *testing.T) model.MissedExamRequest {
	t.Helper()
	require.Len(t, h.db.requests, 1)
	for _, r := range h.db.requests {
		return r
	}
	return model.MissedExamRequest{}
}

func TestMissedExamSubmitAfterWindow(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	_, err := h.missed.Submit(ctx, testStudent, f.exam, "I was in hospital that morning.")
	require.ErrorIs(t, err, ErrWindowNotElapsed)

	h.clock.Set(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	_, err = h.missed.Submit(ctx, testStudent, f.exam, "I was in hospital that morning.")
	require.ErrorIs(t, err, ErrWindowNotElapsed, "window end is inclusive")

	h.clock.Set(afterWindow)
	created, err := h.missed.Submit(ctx, testStudent, f.exam, "  I was in hospital that morning.  ")
	require.NoError(t, err)
	require.True(t, created)

	req := h.onlyRequest(t)
	require.Equal(t, model.RequestStatusPending, req.Status)
	require.Equal(t, "I was in hospital that morning.", req.Reason)

	created, err = h.missed.Submit(ctx, testStudent, f.exam, "Second try.")
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, h.db.requests, 1)
}

func TestMissedExamSubmitRejectsRecordedAttempt(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	_, _, err := h.attempts.Start(ctx, testStudent, f.exam)
	require.NoError(t, err)

	h.clock.Set(afterWindow)
	_, err = h.missed.Submit(ctx, testStudent, f.exam, "My laptop crashed.")
	require.ErrorIs(t, err, ErrAttemptRecorded)
}

func TestMissedExamFallsBackToExamWindow(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	delete(h.db.schedules, f.schedule)

	_, err := h.missed.Submit(ctx, testStudent, f.exam, "Never got a schedule.")
	require.ErrorIs(t, err, ErrNoSchedule)

	end := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	exam := h.db.exams[f.exam]
	exam.ScheduledEnd = &end
	h.db.exams[f.exam] = exam

	created, err := h.missed.Submit(ctx, testStudent, f.exam, "Never got a schedule.")
	require.NoError(t, err)
	require.True(t, created)
}

func TestMissedExamApproveRewritesSchedule(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	h.clock.Set(afterWindow)
	_, err := h.missed.Submit(ctx, testStudent, f.exam, "I was in hospital that morning.")
	require.NoError(t, err)
	req := h.onlyRequest(t)

	newStart := time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(3 * time.Hour)

	_, err = h.missed.Approve(ctx, testInstructor+1, req.ID, newStart, newEnd)
	require.ErrorIs(t, err, ErrNotOwned)

	_, err = h.missed.Approve(ctx, testInstructor, req.ID, newEnd, newStart)
	require.ErrorIs(t, err, ErrInvalidWindow)

	resolved, err := h.missed.Approve(ctx, testInstructor, req.ID, newStart, newEnd)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusApproved, resolved.Status)
	require.Equal(t, testInstructor, *resolved.ResolvedBy)

	sched := h.db.schedules[f.schedule]
	require.Equal(t, model.SessionCustom, sched.Session)
	require.Equal(t, newStart, sched.ScheduledDate)
	require.Equal(t, newEnd, *sched.WindowEnd)
	require.Len(t, h.db.schedules, 1, "schedule rewritten in place")

	h.clock.Set(newStart.Add(2 * time.Hour))
	_, created, err := h.attempts.Start(ctx, testStudent, f.exam)
	require.NoError(t, err)
	require.True(t, created)

	_, err = h.missed.Approve(ctx, testInstructor, req.ID, newStart, newEnd)
	require.ErrorIs(t, err, ErrRequestResolved)
}

func TestMissedExamReject(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	h.clock.Set(afterWindow)
	_, err := h.missed.Submit(ctx, testStudent, f.exam, "I was in hospital that morning.")
	require.NoError(t, err)
	req := h.onlyRequest(t)

	_, err = h.missed.Reject(ctx, testInstructor, req.ID, "   ")
	require.ErrorIs(t, err, ErrInvalidState)

	resolved, err := h.missed.Reject(ctx, testInstructor, req.ID, "No medical certificate attached.")
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusRejected, resolved.Status)
	require.Equal(t, "No medical certificate attached.", *resolved.InstructorResponse)

	_, err = h.missed.Reject(ctx, testInstructor, req.ID, "Again.")
	require.ErrorIs(t, err, ErrRequestResolved)

	_, err = h.missed.Reject(ctx, testInstructor, uuid.New(), "Unknown.")
	require.ErrorIs(t, err, ErrRequestNotFound)

	pending, err := h.missed.ListPending(ctx, testInstructor)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestMissedExamRequiresEnrollment(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	const outsider = 999

	end := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	exam := h.db.exams[f.exam]
	exam.ScheduledEnd = &end
	h.db.exams[f.exam] = exam

	created, err := h.missed.Submit(ctx, outsider, f.exam, "Let me in.")
	require.ErrorIs(t, err, ErrNotEnrolled)
	require.False(t, created)
	require.Empty(t, h.db.requests)

	// Enrollment withdrawn while the request was pending.
	h.clock.Set(afterWindow)
	_, err = h.missed.Submit(ctx, testStudent, f.exam, "I was in hospital that morning.")
	require.NoError(t, err)
	req := h.onlyRequest(t)
	delete(h.db.enrollments, enrollKey{testStudent, f.course})

	newStart := time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC)
	_, err = h.missed.Approve(ctx, testInstructor, req.ID, newStart, newStart.Add(3*time.Hour))
	require.ErrorIs(t, err, ErrNotEnrolled)
	require.Equal(t, model.SessionMorning, h.db.schedules[f.schedule].Session)
	require.Equal(t, model.RequestStatusPending, h.db.requests[req.ID].Status)

	h.clock.Set(newStart.Add(time.Hour))
	_, _, err = h.attempts.Start(ctx, outsider, f.exam)
	require.ErrorIs(t, err, ErrNoSchedule)
}
