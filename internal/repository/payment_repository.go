package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/model"
)

// PaymentRepository records re-exam payments.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *model.ReExamPayment) error {
	var txnID *string
	if p.TransactionID != "" {
		txnID = &p.TransactionID
	}
	return database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO re_exam_payments (student_id, attempt_id, amount, method, status, transaction_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		p.StudentID, p.AttemptID, p.Amount, p.Method, p.Status, txnID,
	).Scan(&p.ID, &p.CreatedAt)
}

// HasCompleted reports whether a completed payment exists for the attempt.
func (r *PaymentRepository) HasCompleted(ctx context.Context, studentID int, attemptID uuid.UUID) (bool, error) {
	var ok bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM re_exam_payments
		     WHERE student_id = $1 AND attempt_id = $2 AND status = $3)`,
		studentID, attemptID, model.PaymentStatusCompleted,
	).Scan(&ok)
	return ok, err
}
