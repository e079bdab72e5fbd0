package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// PublicationService makes graded results visible once their publish-due time
// has passed. Publish is safe to call any number of times, concurrently.
type PublicationService struct {
	tx       Transactor
	exams    ExamStore
	attempts AttemptStore
	awarder  AchievementAwarder
	issuer   CertificateIssuer
	notifier ResultNotifier
	clock    clock.Clock
	log      zerolog.Logger
}

// NewPublicationService creates a new PublicationService. notifier may be nil.
func NewPublicationService(
	tx Transactor,
	exams ExamStore,
	attempts AttemptStore,
	awarder AchievementAwarder,
	issuer CertificateIssuer,
	notifier ResultNotifier,
	clk clock.Clock,
	log zerolog.Logger,
) *PublicationService {
	return &PublicationService{
		tx:       tx,
		exams:    exams,
		attempts: attempts,
		awarder:  awarder,
		issuer:   issuer,
		notifier: notifier,
		clock:    clk,
		log:      log.With().Str("component", "publication_service").Logger(),
	}
}

// Publish publishes one attempt if it is due. It reports false when the
// attempt was already published. Achievements and the certificate are written
// in the same transaction as the published flag.
func (s *PublicationService) Publish(ctx context.Context, attemptID uuid.UUID) (published bool, err error) {
	ctx, span := startSpan(ctx, "attempt.publish", attribute.String("attempt.id", attemptID.String()))
	defer func() { endSpan(span, err) }()

	var attempt *model.ExamAttempt
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		if a.ResultPublished {
			return nil
		}
		if !a.InternalAssigned || a.PublishDueAt == nil {
			return ErrNotGraded
		}
		now := s.clock.Now()
		if now.Before(*a.PublishDueAt) {
			return ErrPublicationNotDue
		}

		a.ResultPublished = true
		a.ResultPublishedAt = &now
		if err := s.attempts.Update(ctx, a); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}

		if _, err := s.awarder.Evaluate(ctx, a.StudentID, nil, a); err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		if a.IsPassed {
			exam, err := s.exams.GetByID(ctx, a.ExamID)
			if err != nil {
				return notFound(err, ErrExamNotFound, "get exam")
			}
			if _, err := s.issuer.Generate(ctx, a.StudentID, exam.CourseID, a.ID); err != nil {
				return fmt.Errorf("generate certificate: %w", err)
			}
		}

		attempt = a
		published = true
		return nil
	})
	if err != nil || !published {
		return false, err
	}

	outcome := "failed"
	if attempt.IsPassed {
		outcome = "passed"
	}
	observability.ResultsPublished().WithLabelValues(outcome).Inc()
	observability.PublicationLag().Observe(attempt.ResultPublishedAt.Sub(*attempt.PublishDueAt).Seconds())

	if s.notifier != nil {
		if err := s.notifier.NotifyPublished(ctx, attempt); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Result notification failed")
		}
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("student_id", attempt.StudentID).
		Bool("passed", attempt.IsPassed).
		Msg("Result published")
	return true, nil
}

// PublishDue publishes up to limit attempts whose due time has passed,
// straight from the database. It returns how many this call published.
func (s *PublicationService) PublishDue(ctx context.Context, limit int) (int, error) {
	ids, err := s.attempts.ListDueForPublication(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, fmt.Errorf("list due attempts: %w", err)
	}

	count := 0
	for _, id := range ids {
		ok, err := s.Publish(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("attempt_id", id.String()).Msg("Sweep publish failed")
			continue
		}
		if ok {
			count++
		}
	}
	if count > 0 {
		s.log.Info().Int("published", count).Msg("Publication sweep finished")
	}
	return count, nil
}
