package contracts

import (
	"context"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/dto/responses"
	"time"
)

type PaymentUsecase interface {
	StartPayment(ctx context.Context, request *requests.StartPayment) (models.WorkflowHandle, error)
	OnSettled(handle models.WorkflowHandle, callback func(models.SettlementOutcome)) error
	Cancel(ctx context.Context, handle models.WorkflowHandle) error
	GetPaymentStatus(ctx context.Context, intentID string) (*responses.PaymentStatus, error)
	ListPaymentRecords(ctx context.Context, request *requests.ListPaymentRecords) ([]responses.PaymentRecord, error)
	FindPaymentRecordByReceipt(ctx context.Context, receiptNumber string) (*responses.PaymentRecord, error)
	HasLiveWorkflow(intentID string) bool
	Shutdown(ctx context.Context) error
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindByPatientID(ctx context.Context, patientID string) ([]models.Payment, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error)
}

type PaymentJournalRepository interface {
	Upsert(ctx context.Context, journal *models.PaymentJournal) error
	FindByIntentID(ctx context.Context, intentID string) (*models.PaymentJournal, error)
	// SettleIfPending writes journal's terminal fields only while the stored
	// entry is still non-terminal, and reports whether it did.
	SettleIfPending(ctx context.Context, journal *models.PaymentJournal) (bool, error)
	FindStale(ctx context.Context, olderThan time.Time) ([]models.PaymentJournal, error)
}

// SettlementSubscriber observes every settled workflow. Its failures are
// logged and never change the outcome.
type SettlementSubscriber interface {
	Name() string
	OnSettlement(ctx context.Context, outcome models.SettlementOutcome) error
}
