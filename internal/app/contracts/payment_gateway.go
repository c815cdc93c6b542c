package contracts

import (
	"context"
	"maternity-service/internal/app/models"

	"github.com/shopspring/decimal"
)

// PaymentGatewayService is the mobile-money provider boundary. Errors carry
// one of the exceptions.Kind* sentinels.
type PaymentGatewayService interface {
	// Initiate pushes a payment prompt to the payer's phone.
	Initiate(ctx context.Context, amount decimal.Decimal, payerMsisdn, referenceLabel string) (models.PollHandle, error)
	// Poll re-queries the provider for the transaction behind handle.
	Poll(ctx context.Context, handle models.PollHandle) (models.TransactionStatus, error)
}
