package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/model"
)

// CertificateService issues course certificates for passed attempts.
type CertificateService struct {
	store CertificateStore
	clock clock.Clock
	log   zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(store CertificateStore, clk clock.Clock, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		store: store,
		clock: clk,
		log:   log.With().Str("component", "certificate_service").Logger(),
	}
}

// Generate issues the certificate of an attempt, or returns the one already issued.
func (s *CertificateService) Generate(ctx context.Context, studentID int, courseID, attemptID uuid.UUID) (*model.Certificate, error) {
	now := s.clock.Now()
	cert := &model.Certificate{
		StudentID:         studentID,
		CourseID:          courseID,
		AttemptID:         attemptID,
		CertificateNumber: certificateNumber(now.Year(), uuid.New()),
		IssuedAt:          now,
	}
	created, err := s.store.Create(ctx, cert)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	if !created {
		return s.store.GetByAttempt(ctx, attemptID)
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("student_id", studentID).
		Str("certificate_number", cert.CertificateNumber).
		Msg("Certificate issued")
	return cert, nil
}

// ListByStudent lists a student's certificates.
func (s *CertificateService) ListByStudent(ctx context.Context, studentID int) ([]model.Certificate, error) {
	list, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	if list == nil {
		list = []model.Certificate{}
	}
	return list, nil
}

// certificateNumber formats CERT-YYYY-XXXXXXXX from the first 8 hex digits of id.
func certificateNumber(year int, id uuid.UUID) string {
	return fmt.Sprintf("CERT-%d-%s", year, strings.ToUpper(id.String()[:8]))
}
