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

// CertificateRepository handles issued certificates.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

// Create inserts a certificate. It reports false when the attempt already has one.
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) (bool, error) {
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO certificates (student_id, course_id, attempt_id, certificate_number, issued_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (attempt_id) DO NOTHING
		 RETURNING id`,
		c.StudentID, c.CourseID, c.AttemptID, c.CertificateNumber, c.IssuedAt,
	).Scan(&c.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByAttempt retrieves the certificate of an attempt.
func (r *CertificateRepository) GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, student_id, course_id, attempt_id, certificate_number, issued_at
		 FROM certificates WHERE attempt_id = $1`, attemptID,
	).Scan(&c.ID, &c.StudentID, &c.CourseID, &c.AttemptID, &c.CertificateNumber, &c.IssuedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByStudent lists a student's certificates, newest first.
func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Certificate, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, student_id, course_id, attempt_id, certificate_number, issued_at
		 FROM certificates WHERE student_id = $1
		 ORDER BY issued_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Certificate
	for rows.Next() {
		var c model.Certificate
		if err := rows.Scan(&c.ID, &c.StudentID, &c.CourseID, &c.AttemptID, &c.CertificateNumber, &c.IssuedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// AchievementRepository handles awarded achievements.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// Award inserts an achievement. It reports false when it was already awarded.
func (r *AchievementRepository) Award(ctx context.Context, a *model.StudentAchievement) (bool, error) {
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO student_achievements (student_id, code, reference_id, awarded_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (student_id, code, reference_id) DO NOTHING
		 RETURNING id`,
		a.StudentID, a.Code, a.ReferenceID, a.AwardedAt,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByStudent lists a student's achievements, newest first.
func (r *AchievementRepository) ListByStudent(ctx context.Context, studentID int) ([]model.StudentAchievement, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, student_id, code, reference_id, awarded_at
		 FROM student_achievements WHERE student_id = $1
		 ORDER BY awarded_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.StudentAchievement
	for rows.Next() {
		var a model.StudentAchievement
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Code, &a.ReferenceID, &a.AwardedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
