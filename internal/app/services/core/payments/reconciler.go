package payments

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/shared/metrics"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Reconciler records a confirmed payment against clinic records. It runs
// once per confirmed intent and never retries.
type Reconciler struct {
	PaymentRepository     contracts.PaymentRepository
	AppointmentRepository contracts.AppointmentRepository
	MedicationRepository  contracts.MedicationRepository
	Receipts              *ReceiptGenerator
	Clock                 clockwork.Clock
	Log                   *zap.Logger
}

func NewReconciler(
	paymentRepository contracts.PaymentRepository,
	appointmentRepository contracts.AppointmentRepository,
	medicationRepository contracts.MedicationRepository,
	receipts *ReceiptGenerator,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		PaymentRepository:     paymentRepository,
		AppointmentRepository: appointmentRepository,
		MedicationRepository:  medicationRepository,
		Receipts:              receipts,
		Clock:                 clock,
		Log:                   logger,
	}
}

type reconcileTarget struct {
	patientID     string
	appointmentID *string
	medicationID  *string
	// missing is set when the ledger row can be written but there is
	// nothing to flip afterwards.
	missing error
}

// Reconcile writes the receipt and PaymentRecord and flips the target
// status, in that order. The returned record is non-nil once the ledger
// row exists, even when a later stage failed.
func (r *Reconciler) Reconcile(ctx context.Context, intent models.PaymentIntent) (*models.Payment, error) {
	requestID := utils.GetRequestID(ctx)
	r.Log.Info("Reconciler.Reconcile called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, intent.ID),
		zap.String(constvars.LoggingPurposeKey, string(intent.Purpose)),
	)

	target, err := r.resolveTarget(ctx, intent)
	if err != nil {
		return nil, r.partialFailure(intent, constvars.ReconcileStageResolveTarget, "", err)
	}

	record := &models.Payment{
		ID:            uuid.NewString(),
		IntentID:      intent.ID,
		PatientID:     target.patientID,
		AppointmentID: target.appointmentID,
		MedicationID:  target.medicationID,
		Method:        constvars.PaymentMethodEcoCash,
		Description:   intent.Purpose.Description(),
		ReceiptNumber: r.Receipts.Next(),
		Amount:        intent.Amount,
		CreatedAt:     r.Clock.Now(),
	}

	if err := r.PaymentRepository.CreatePayment(ctx, record); err != nil {
		return nil, r.partialFailure(intent, constvars.ReconcileStagePaymentRecord, "", err)
	}

	if err := r.flipTarget(ctx, target); err != nil {
		return record, r.partialFailure(intent, constvars.ReconcileStageTargetStatus, record.ReceiptNumber, err)
	}

	utils.LogBusinessEvent(r.Log, "payment_reconciled", requestID,
		zap.String(constvars.LoggingIntentIDKey, intent.ID),
		zap.String(constvars.LoggingPaymentIDKey, record.ID),
		zap.String(constvars.LoggingReceiptNumberKey, record.ReceiptNumber),
		zap.String(constvars.LoggingPatientIDKey, record.PatientID),
	)
	return record, nil
}

func (r *Reconciler) resolveTarget(ctx context.Context, intent models.PaymentIntent) (reconcileTarget, error) {
	switch intent.Purpose {
	case models.PurposeRegistration:
		appointment, err := r.AppointmentRepository.FindOnboardingByPatientID(ctx, intent.SubjectID)
		if err != nil {
			return reconcileTarget{}, err
		}
		target := reconcileTarget{patientID: intent.SubjectID}
		if appointment == nil {
			target.missing = fmt.Errorf("patient %s has no onboarding appointment", intent.SubjectID)
			return target, nil
		}
		target.appointmentID = &appointment.ID
		return target, nil

	case models.PurposeAppointment:
		appointment, err := r.AppointmentRepository.FindByID(ctx, intent.SubjectID)
		if err != nil {
			return reconcileTarget{}, err
		}
		if appointment == nil {
			return reconcileTarget{}, fmt.Errorf("appointment %s not found", intent.SubjectID)
		}
		return reconcileTarget{patientID: appointment.PatientID, appointmentID: &appointment.ID}, nil

	case models.PurposeMedication:
		medication, err := r.MedicationRepository.FindByID(ctx, intent.SubjectID)
		if err != nil {
			return reconcileTarget{}, err
		}
		if medication == nil {
			return reconcileTarget{}, fmt.Errorf("medication %s not found", intent.SubjectID)
		}
		return reconcileTarget{patientID: medication.PatientID, medicationID: &medication.ID}, nil
	}
	return reconcileTarget{}, fmt.Errorf("unsupported payment purpose %q", intent.Purpose)
}

func (r *Reconciler) flipTarget(ctx context.Context, target reconcileTarget) error {
	if target.missing != nil {
		return target.missing
	}
	if target.medicationID != nil {
		return r.MedicationRepository.UpdateConsumptionStatus(ctx, *target.medicationID, models.MedicationInProgress)
	}
	return r.AppointmentRepository.UpdatePaymentStatus(ctx, *target.appointmentID, models.AppointmentPaymentPaid)
}

func (r *Reconciler) partialFailure(intent models.PaymentIntent, stage, receiptNumber string, err error) error {
	metrics.IncReconciliationFailure(stage)
	r.Log.Error("Reconciler.Reconcile payment confirmed but not fully recorded",
		zap.String(constvars.LoggingIntentIDKey, intent.ID),
		zap.String(constvars.LoggingReconcileStageKey, stage),
		zap.String(constvars.LoggingReceiptNumberKey, receiptNumber),
		zap.String(constvars.LoggingSubjectIDKey, intent.SubjectID),
		zap.String(constvars.LoggingAmountKey, intent.Amount.StringFixed(2)),
		zap.Error(err),
	)
	return exceptions.ErrReconciliationPartialFailure(err, stage, receiptNumber)
}
