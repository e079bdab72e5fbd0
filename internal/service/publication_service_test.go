package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stretchr/testify/require"
)

func TestPublishWaitsForDelay(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	attempt := h.sit(t, f, [2]*uuid.UUID{f.correct(0), f.correct(1)})
	h.grade(t, f, attempt.ID, 3, 2)

	h.clock.Advance(2*time.Hour + 59*time.Minute)
	published, err := h.publications.Publish(ctx, attempt.ID)
	require.ErrorIs(t, err, ErrPublicationNotDue)
	require.False(t, published)
	require.False(t, h.db.attempts[attempt.ID].ResultPublished)

	h.clock.Advance(time.Minute + time.Second)
	published, err = h.publications.Publish(ctx, attempt.ID)
	require.NoError(t, err)
	require.True(t, published)

	result, err := h.attempts.GetResult(ctx, testStudent, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, 9, result.TotalScore)
	require.Equal(t, 10, result.TotalMarks)
	require.True(t, result.IsPassed)
	require.Equal(t, h.clock.Now(), result.PublishedAt)
}

func TestPublishIsIdempotent(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	attempt := h.sit(t, f, [2]*uuid.UUID{f.correct(0), f.correct(1)})
	h.grade(t, f, attempt.ID, 4, 2)
	h.clock.Advance(testDelay)

	published, err := h.publications.Publish(ctx, attempt.ID)
	require.NoError(t, err)
	require.True(t, published)

	published, err = h.publications.Publish(ctx, attempt.ID)
	require.NoError(t, err)
	require.False(t, published)

	codes := map[model.AchievementCode]int{}
	for _, a := range h.db.achievements {
		codes[a.Code]++
	}
	require.Equal(t, map[model.AchievementCode]int{
		model.AchievementExamPassed:   1,
		model.AchievementPerfectScore: 1,
	}, codes)

	require.Len(t, h.db.certificates, 1)
	cert := h.db.certificates[attempt.ID]
	require.Regexp(t, `^CERT-2026-[0-9A-F]{8}$`, cert.CertificateNumber)
	require.Equal(t, f.course, cert.CourseID)

	require.Equal(t, []uuid.UUID{attempt.ID}, h.notifier.notified)
}

func TestPublishFailedAttemptHasNoCertificate(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	attempt := h.sit(t, f, [2]*uuid.UUID{f.wrong(0), f.wrong(1)})
	h.grade(t, f, attempt.ID, 1, 1)
	h.clock.Advance(testDelay)

	published, err := h.publications.Publish(ctx, attempt.ID)
	require.NoError(t, err)
	require.True(t, published)

	stored := h.db.attempts[attempt.ID]
	require.True(t, stored.IsFailed())
	require.Empty(t, h.db.certificates)
	require.Empty(t, h.db.achievements)
}

func TestPublishRequiresGrading(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	attempt := h.sit(t, f, [2]*uuid.UUID{f.correct(0), f.correct(1)})
	h.clock.Advance(24 * time.Hour)

	_, err := h.publications.Publish(ctx, attempt.ID)
	require.ErrorIs(t, err, ErrNotGraded)

	_, err = h.publications.Publish(ctx, uuid.New())
	require.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestPublishDueSweepsDatabase(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()

	attempt := h.sit(t, f, [2]*uuid.UUID{f.correct(0), f.correct(1)})
	h.grade(t, f, attempt.ID, 3, 2)

	n, err := h.publications.PublishDue(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, n)

	h.clock.Advance(testDelay)
	n, err = h.publications.PublishDue(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = h.publications.PublishDue(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, n)
}
