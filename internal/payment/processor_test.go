package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stretchr/testify/require"
)

func TestChargeAcceptsKnownMethods(t *testing.T) {
	p := NewOfflineProcessor(zerolog.Nop())

	res, err := p.Charge(context.Background(), 25, model.PaymentMethodCard)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, strings.HasPrefix(res.TransactionID, "TXN-"))

	other, err := p.Charge(context.Background(), 25, model.PaymentMethodEWallet)
	require.NoError(t, err)
	require.NotEqual(t, res.TransactionID, other.TransactionID)
}

func TestChargeDeclines(t *testing.T) {
	p := NewOfflineProcessor(zerolog.Nop())

	res, err := p.Charge(context.Background(), 25, model.PaymentMethod("cash"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Empty(t, res.TransactionID)

	res, err = p.Charge(context.Background(), 0, model.PaymentMethodCard)
	require.NoError(t, err)
	require.False(t, res.Success)
}

func TestChargeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOfflineProcessor(zerolog.Nop()).Charge(ctx, 25, model.PaymentMethodCard)
	require.ErrorIs(t, err, context.Canceled)
}
