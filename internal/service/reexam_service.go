package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ReExamService handles the paid retake of a failed attempt.
type ReExamService struct {
	tx        Transactor
	exams     ExamStore
	attempts  AttemptStore
	payments  PaymentStore
	processor PaymentProcessor
	starter   *AttemptService
	fee       float64
	log       zerolog.Logger
}

// NewReExamService creates a new ReExamService. fee is charged per retake.
func NewReExamService(
	tx Transactor,
	exams ExamStore,
	attempts AttemptStore,
	payments PaymentStore,
	processor PaymentProcessor,
	starter *AttemptService,
	fee float64,
	log zerolog.Logger,
) *ReExamService {
	return &ReExamService{
		tx:        tx,
		exams:     exams,
		attempts:  attempts,
		payments:  payments,
		processor: processor,
		starter:   starter,
		fee:       fee,
		log:       log.With().Str("component", "reexam_service").Logger(),
	}
}

// HasPaidReExam reports whether a completed re-exam payment exists for the attempt.
func (s *ReExamService) HasPaidReExam(ctx context.Context, studentID int, attemptID uuid.UUID) (bool, error) {
	paid, err := s.payments.HasCompleted(ctx, studentID, attemptID)
	if err != nil {
		return false, fmt.Errorf("check payment: %w", err)
	}
	return paid, nil
}

// PayForReExam charges the re-exam fee for a failed attempt and records the
// outcome. The paid check, the charge and the record run under the
// (student, exam) lock, so a student is never charged twice. A declined
// charge is recorded and reported as ErrPaymentFailed.
func (s *ReExamService) PayForReExam(ctx context.Context, studentID int, attemptID uuid.UUID, method model.PaymentMethod) (*model.ReExamPayment, error) {
	attempt, err := s.failedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}

	var payment *model.ReExamPayment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, config.CacheKey.AttemptLockKey(attempt.ExamID.String(), studentID)); err != nil {
			return err
		}
		paid, err := s.HasPaidReExam(ctx, studentID, attempt.ID)
		if err != nil {
			return err
		}
		if paid {
			return ErrReExamPaid
		}

		result, err := s.processor.Charge(ctx, s.fee, method)
		if err != nil {
			return fmt.Errorf("charge: %w", err)
		}

		payment = &model.ReExamPayment{
			StudentID:     studentID,
			AttemptID:     attempt.ID,
			Amount:        s.fee,
			Method:        method,
			Status:        model.PaymentStatusFailed,
			TransactionID: result.TransactionID,
		}
		if result.Success {
			payment.Status = model.PaymentStatusCompleted
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("student_id", studentID).
		Str("status", string(payment.Status)).
		Str("transaction_id", payment.TransactionID).
		Msg("Re-exam payment recorded")

	if payment.Status != model.PaymentStatusCompleted {
		return payment, ErrPaymentFailed
	}
	return payment, nil
}

// CreateReExamAttempt opens a new attempt for a failed, paid-for attempt. The
// new attempt reuses the original schedule and skips the window check.
func (s *ReExamService) CreateReExamAttempt(ctx context.Context, studentID int, originalAttemptID uuid.UUID) (attempt *model.ExamAttempt, err error) {
	ctx, span := startSpan(ctx, "attempt.create_re_exam",
		attribute.String("attempt.original_id", originalAttemptID.String()),
		attribute.Int("attempt.student_id", studentID),
	)
	defer func() { endSpan(span, err) }()

	original, err := s.attempts.GetByID(ctx, originalAttemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound, "get attempt")
	}
	if original.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	exam, err := s.exams.GetByID(ctx, original.ExamID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, config.CacheKey.AttemptLockKey(original.ExamID.String(), studentID)); err != nil {
			return err
		}
		orig, err := s.attempts.GetForUpdate(ctx, originalAttemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		if !orig.IsFailed() {
			return ErrAttemptNotFailed
		}

		paid, err := s.payments.HasCompleted(ctx, studentID, orig.ID)
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if !paid {
			return ErrReExamUnpaid
		}

		_, err = s.attempts.GetByOriginal(ctx, orig.ID)
		if err == nil {
			return ErrReExamExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("get re-exam: %w", err)
		}

		originalID := orig.ID
		attempt, err = s.starter.create(ctx, exam, studentID, orig.ScheduleID, &originalID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.AttemptTransitions().WithLabelValues("start_re_exam").Inc()
	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("original_attempt_id", originalAttemptID.String()).
		Int("student_id", studentID).
		Msg("Re-exam attempt created")
	return attempt, nil
}

func (s *ReExamService) failedAttempt(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound, "get attempt")
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	if !attempt.IsFailed() {
		return nil, ErrAttemptNotFailed
	}
	return attempt, nil
}
