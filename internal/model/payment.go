package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates re-exam payment outcomes.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentMethod identifies how a student pays.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
)

// ReExamPayment records a payment keyed by (student, failed attempt). It is an
// audit record and outlives the attempt it refers to.
type ReExamPayment struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     int           `json:"student_id"`
	AttemptID     uuid.UUID     `json:"attempt_id"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// PaymentResult is the opaque outcome of a charge.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}

// PayReExamRequest is the student payload for paying a retake.
type PayReExamRequest struct {
	Method PaymentMethod `json:"method" binding:"required,oneof=card bank_transfer e_wallet"`
}
