// Package payment holds the PaymentProcessor used in deployments without a
// gateway integration.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/model"
)

// OfflineProcessor accepts every charge with a positive amount and a known
// method, issuing a local transaction id. Reconciliation happens out of band.
type OfflineProcessor struct {
	log zerolog.Logger
}

// NewOfflineProcessor creates a new OfflineProcessor.
func NewOfflineProcessor(log zerolog.Logger) *OfflineProcessor {
	return &OfflineProcessor{log: log.With().Str("component", "payment_processor").Logger()}
}

// Charge implements the engine's PaymentProcessor port.
func (p *OfflineProcessor) Charge(ctx context.Context, amount float64, method model.PaymentMethod) (model.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return model.PaymentResult{}, err
	}

	switch method {
	case model.PaymentMethodCard, model.PaymentMethodBankTransfer, model.PaymentMethodEWallet:
	default:
		return model.PaymentResult{Success: false, Message: fmt.Sprintf("unsupported method %q", method)}, nil
	}
	if amount <= 0 {
		return model.PaymentResult{Success: false, Message: "amount must be positive"}, nil
	}

	txID := "TXN-" + uuid.New().String()
	p.log.Info().
		Float64("amount", amount).
		Str("method", string(method)).
		Str("transaction_id", txID).
		Msg("Charge accepted")
	return model.PaymentResult{Success: true, TransactionID: txID}, nil
}
