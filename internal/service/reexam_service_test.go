package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stretchr/testify/require"
)

// failAndPublish sits the fixture exam with every answer wrong and publishes it.
func (h *harness) failAndPublish(t *testing.T, f fixture) *model.ExamAttempt {
	t.Helper()
	attempt := h.sit(t, f, [2]*uuid.UUID{f.wrong(0), f.wrong(1)})
	h.grade(t, f, attempt.ID, 0, 0)
	h.clock.Advance(testDelay)

	published, err := h.publications.Publish(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.True(t, published)

	stored := h.db.attempts[attempt.ID]
	return &stored
}

func TestReExamRequiresPayment(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	failed := h.failAndPublish(t, f)

	_, err := h.reExams.CreateReExamAttempt(ctx, testStudent, failed.ID)
	require.ErrorIs(t, err, ErrReExamUnpaid)

	paid, err := h.reExams.HasPaidReExam(ctx, testStudent, failed.ID)
	require.NoError(t, err)
	require.False(t, paid)
}

func TestReExamDeclinedPaymentIsRecorded(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	failed := h.failAndPublish(t, f)
	h.payments.decline = true

	payment, err := h.reExams.PayForReExam(ctx, testStudent, failed.ID, model.PaymentMethodCard)
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.NotNil(t, payment)
	require.Equal(t, model.PaymentStatusFailed, payment.Status)
	require.Len(t, h.db.payments, 1)

	_, err = h.reExams.CreateReExamAttempt(ctx, testStudent, failed.ID)
	require.ErrorIs(t, err, ErrReExamUnpaid)
}

func TestReExamConcurrentPaymentsChargeOnce(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	failed := h.failAndPublish(t, f)

	const clients = 8
	errs := make([]error, clients)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = h.reExams.PayForReExam(ctx, testStudent, failed.ID, model.PaymentMethodCard)
		}()
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrReExamPaid)
	}
	require.Equal(t, 1, succeeded)
	require.Len(t, h.payments.charged, 1)
	require.Len(t, h.db.payments, 1)

	locks := h.tx.heldLocks()
	require.NotEmpty(t, locks)
	require.Contains(t, locks[len(locks)-1], f.exam.String())
}

func TestReExamFlow(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	failed := h.failAndPublish(t, f)

	payment, err := h.reExams.PayForReExam(ctx, testStudent, failed.ID, model.PaymentMethodEWallet)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusCompleted, payment.Status)
	require.Equal(t, 25.0, payment.Amount)
	require.Equal(t, []float64{25}, h.payments.charged)

	_, err = h.reExams.PayForReExam(ctx, testStudent, failed.ID, model.PaymentMethodEWallet)
	require.ErrorIs(t, err, ErrReExamPaid)

	// The original window closed long ago; a re-exam ignores it.
	h.clock.Advance(72 * time.Hour)
	retake, err := h.reExams.CreateReExamAttempt(ctx, testStudent, failed.ID)
	require.NoError(t, err)
	require.True(t, retake.IsReExam())
	require.Equal(t, failed.ID, *retake.OriginalAttemptID)
	require.Equal(t, failed.ScheduleID, retake.ScheduleID)
	require.False(t, retake.IsCompleted)

	_, err = h.reExams.CreateReExamAttempt(ctx, testStudent, failed.ID)
	require.ErrorIs(t, err, ErrReExamExists)

	// The open re-exam is what Start hands back.
	open, created, err := h.attempts.Start(ctx, testStudent, f.exam)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, retake.ID, open.ID)
}

func TestReExamPassAwardsAchievement(t *testing.T) {
	h := newHarness(t)
	f := h.seedExam(t)
	ctx := context.Background()
	failed := h.failAndPublish(t, f)

	_, err := h.reExams.PayForReExam(ctx, testStudent, failed.ID, model.PaymentMethodCard)
	require.NoError(t, err)
	retake, err := h.reExams.CreateReExamAttempt(ctx, testStudent, failed.ID)
	require.NoError(t, err)

	_, err = h.attempts.SubmitPartA(ctx, testStudent, retake.ID, []model.PartAAnswerInput{
		{QuestionID: f.partA[0].ID, OptionID: f.correct(0)},
		{QuestionID: f.partA[1].ID, OptionID: f.correct(1)},
	})
	require.NoError(t, err)
	_, err = h.attempts.SubmitPartB(ctx, testStudent, retake.ID, nil)
	require.NoError(t, err)
	h.grade(t, f, retake.ID, 2, 1)
	h.clock.Advance(testDelay)

	published, err := h.publications.Publish(ctx, retake.ID)
	require.NoError(t, err)
	require.True(t, published)

	_, ok := h.db.achievements[achievementKey{testStudent, model.AchievementReExamPassed, retake.ID}]
	require.True(t, ok)
}

func TestReExamOnlyForFailedAttempts(t *testing.T) {
	ctx := context.Background()

	t.Run("passed attempt", func(t *testing.T) {
		h := newHarness(t)
		f := h.seedExam(t)
		attempt := h.sit(t, f, [2]*uuid.UUID{f.correct(0), f.correct(1)})
		h.grade(t, f, attempt.ID, 3, 2)
		h.clock.Advance(testDelay)
		_, err := h.publications.Publish(ctx, attempt.ID)
		require.NoError(t, err)

		_, err = h.reExams.PayForReExam(ctx, testStudent, attempt.ID, model.PaymentMethodCard)
		require.ErrorIs(t, err, ErrAttemptNotFailed)
		_, err = h.reExams.CreateReExamAttempt(ctx, testStudent, attempt.ID)
		require.ErrorIs(t, err, ErrAttemptNotFailed)
		require.Empty(t, h.payments.charged)
	})

	t.Run("unpublished failure", func(t *testing.T) {
		h := newHarness(t)
		f := h.seedExam(t)
		attempt := h.sit(t, f, [2]*uuid.UUID{f.wrong(0), f.wrong(1)})
		h.grade(t, f, attempt.ID, 0, 0)

		_, err := h.reExams.PayForReExam(ctx, testStudent, attempt.ID, model.PaymentMethodCard)
		require.ErrorIs(t, err, ErrAttemptNotFailed)
	})

	t.Run("someone else's attempt", func(t *testing.T) {
		h := newHarness(t)
		f := h.seedExam(t)
		failed := h.failAndPublish(t, f)

		_, err := h.reExams.PayForReExam(ctx, testStudent+1, failed.ID, model.PaymentMethodCard)
		require.ErrorIs(t, err, ErrNotAttemptOwner)
		_, err = h.reExams.CreateReExamAttempt(ctx, testStudent+1, failed.ID)
		require.ErrorIs(t, err, ErrNotAttemptOwner)
	})
}
