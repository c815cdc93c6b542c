package payments

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/shared/metrics"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/requests"
	"time"

	"go.uber.org/zap"
)

type metricsSubscriber struct{}

// NewMetricsSubscriber records every settled workflow in the workflow
// counters and duration histogram.
func NewMetricsSubscriber() contracts.SettlementSubscriber {
	return metricsSubscriber{}
}

func (metricsSubscriber) Name() string { return "metrics" }

func (metricsSubscriber) OnSettlement(_ context.Context, outcome models.SettlementOutcome) error {
	metrics.ObserveWorkflow(string(outcome.Intent.Purpose), string(outcome.State), outcome.SettledAt.Sub(outcome.StartedAt).Seconds())
	return nil
}

type settlementEventSubscriber struct {
	Publisher contracts.SettlementPublisher
}

// NewSettlementEventSubscriber publishes each outcome for the receipt
// delivery workers.
func NewSettlementEventSubscriber(publisher contracts.SettlementPublisher) contracts.SettlementSubscriber {
	return &settlementEventSubscriber{Publisher: publisher}
}

func (s *settlementEventSubscriber) Name() string { return "settlement_event" }

func (s *settlementEventSubscriber) OnSettlement(ctx context.Context, outcome models.SettlementOutcome) error {
	return s.Publisher.PublishSettlement(ctx, buildSettlementEvent(outcome))
}

func buildSettlementEvent(outcome models.SettlementOutcome) *requests.SettlementEvent {
	event := &requests.SettlementEvent{
		IntentID:     outcome.IntentID,
		Purpose:      string(outcome.Intent.Purpose),
		SubjectID:    outcome.Intent.SubjectID,
		PayerMsisdn:  outcome.Intent.PayerMsisdn,
		Amount:       outcome.Intent.Amount.StringFixed(2),
		State:        string(outcome.State),
		ErrorMessage: clientMessage(outcome.Err),
		SettledAt:    outcome.SettledAt,
	}
	if outcome.Record != nil {
		paidAt := outcome.Record.CreatedAt
		event.ReceiptNumber = outcome.Record.ReceiptNumber
		event.PatientID = outcome.Record.PatientID
		event.Description = outcome.Record.Description
		event.PaidAt = &paidAt
	}
	return event
}

type receiptArchiveSubscriber struct {
	Storage    contracts.Storage
	BucketName string
	Location   *time.Location
	Log        *zap.Logger
}

// NewReceiptArchiveSubscriber uploads a plain-text receipt for every
// confirmed payment that has a ledger row.
func NewReceiptArchiveSubscriber(storage contracts.Storage, bucketName string, location *time.Location, logger *zap.Logger) contracts.SettlementSubscriber {
	return &receiptArchiveSubscriber{
		Storage:    storage,
		BucketName: bucketName,
		Location:   location,
		Log:        logger,
	}
}

func (s *receiptArchiveSubscriber) Name() string { return "receipt_archive" }

func (s *receiptArchiveSubscriber) OnSettlement(ctx context.Context, outcome models.SettlementOutcome) error {
	if outcome.State != models.WorkflowStateConfirmed || outcome.Record == nil {
		return nil
	}

	location := s.Location
	if location == nil {
		location = time.UTC
	}
	objectName := fmt.Sprintf(constvars.ReceiptObjectNameFormat,
		outcome.Record.CreatedAt.In(location).Format(constvars.ReceiptDateLayout),
		outcome.Record.ReceiptNumber,
	)
	content := RenderReceipt(outcome.Record, outcome.Intent, location)

	url, err := s.Storage.UploadObject(ctx, s.BucketName, objectName, []byte(content), "text/plain; charset=utf-8")
	if err != nil {
		return err
	}
	s.Log.Info("receiptArchiveSubscriber.OnSettlement receipt archived",
		zap.String(constvars.LoggingIntentIDKey, outcome.IntentID),
		zap.String(constvars.LoggingBucketNameKey, s.BucketName),
		zap.String(constvars.LoggingObjectNameKey, objectName),
		zap.String("url", url),
	)
	return nil
}
