package payments

import (
	"context"
	"errors"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/exceptions"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type usecaseHarness struct {
	usecase    *paymentUsecase
	gateway    *fakeGateway
	clinic     *clinicFixture
	journal    *memJournalRepository
	locker     *memLocker
	subscriber *recordingSubscriber
}

func newUsecaseHarness(t *testing.T, script []pollStep) *usecaseHarness {
	t.Helper()
	clock := clockwork.NewRealClock()
	h := &usecaseHarness{
		gateway:    newFakeGateway(clock, script),
		clinic:     newClinicFixture(t, clock),
		journal:    newMemJournalRepository(),
		locker:     newMemLocker(),
		subscriber: &recordingSubscriber{name: "recorder"},
	}
	h.usecase = newPaymentUsecase(
		h.gateway,
		h.clinic.reconciler,
		h.clinic.payments,
		h.journal,
		h.locker,
		[]contracts.SettlementSubscriber{&recordingSubscriber{name: "broken", err: errors.New("queue down")}, h.subscriber},
		clock,
		config.AppWorkflow{
			GraceDelay:          5 * time.Millisecond,
			PollInterval:        5 * time.Millisecond,
			ConfirmationTimeout: 2 * time.Second,
			LockMargin:          time.Second,
		},
		zap.NewNop(),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.usecase.Shutdown(ctx)
	})
	return h
}

func (h *usecaseHarness) await(t *testing.T, handle models.WorkflowHandle) models.SettlementOutcome {
	t.Helper()
	settled := make(chan models.SettlementOutcome, 1)
	require.NoError(t, h.usecase.OnSettled(handle, func(outcome models.SettlementOutcome) {
		settled <- outcome
	}))
	select {
	case outcome := <-settled:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("payment did not settle")
		return models.SettlementOutcome{}
	}
}

func registrationRequest(patientID string) *requests.StartPayment {
	return &requests.StartPayment{
		Amount:    decimal.RequireFromString("5.00"),
		Msisdn:    "+263 77 123 4567",
		Purpose:   "Registration",
		SubjectID: patientID,
	}
}

func TestPaymentUsecase_StartPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Confirmed Payment Is Recorded And Published", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionSent, models.TransactionPending, models.TransactionPaid))

		handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.NoError(t, err)
		assert.NotEmpty(t, handle.IntentID)

		outcome := h.await(t, handle)

		require.NoError(t, outcome.Err)
		assert.Equal(t, models.WorkflowStateConfirmed, outcome.State)
		assert.Equal(t, "0771234567", h.gateway.initiated[0].msisdn)
		assert.Equal(t, models.AppointmentPaymentPaid, h.clinic.appointments.status("appt-onboarding-a"))

		journal, ok := h.journal.get(handle.IntentID)
		require.True(t, ok)
		assert.Equal(t, models.WorkflowStateConfirmed, journal.State)
		assert.Equal(t, outcome.ReceiptNumber(), journal.ReceiptNumber)
		assert.Equal(t, "5.00", journal.Amount)
		assert.Equal(t, 3, journal.Polls)

		assert.Eventually(t, func() bool { return len(h.subscriber.received()) == 1 }, time.Second, time.Millisecond)
		assert.False(t, h.locker.held(outcome.Intent.Key()))
		assert.False(t, h.usecase.HasLiveWorkflow(handle.IntentID))
	})

	t.Run("Validation Error", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPaid))

		_, err := h.usecase.StartPayment(ctx, &requests.StartPayment{
			Amount:    decimal.Zero,
			Msisdn:    "0771234567",
			Purpose:   "registration",
			SubjectID: "patient-a",
		})
		require.True(t, errors.Is(err, exceptions.KindValidation))

		_, err = h.usecase.StartPayment(ctx, &requests.StartPayment{
			Amount:    decimal.NewFromInt(5),
			Msisdn:    "0123",
			Purpose:   "registration",
			SubjectID: "patient-a",
		})
		require.True(t, errors.Is(err, exceptions.KindValidation))
		assert.Zero(t, h.gateway.initiateCount())
	})

	t.Run("Duplicate Intent Is Rejected While Live", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPending, models.TransactionPending, models.TransactionPending, models.TransactionPaid))

		first, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.NoError(t, err)

		_, err = h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.True(t, errors.Is(err, exceptions.KindPaymentAlreadyInProgress))

		h.await(t, first)

		second, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.NoError(t, err)
		require.NoError(t, h.usecase.Cancel(ctx, second))
	})

	t.Run("Intent Locked By Another Instance", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPaid))
		intent := models.PaymentIntent{Purpose: models.PurposeRegistration, SubjectID: "patient-a"}
		_, _, err := h.locker.TryLock(ctx, intent.Key(), time.Minute)
		require.NoError(t, err)

		_, err = h.usecase.StartPayment(ctx, registrationRequest("patient-a"))

		require.True(t, errors.Is(err, exceptions.KindPaymentAlreadyInProgress))
		assert.Zero(t, h.gateway.initiateCount())
	})

	t.Run("Lock Backend Failure", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPaid))
		h.locker.tryErr = exceptions.ErrRedisSet(errors.New("dial tcp: refused"))

		_, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))

		require.Error(t, err)
		assert.Zero(t, h.gateway.initiateCount())

		h.locker.tryErr = nil
		_, err = h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		assert.NoError(t, err, "the local reservation is released after a lock failure")
	})
}

func TestPaymentUsecase_ConcurrentPatients(t *testing.T) {
	ctx := context.Background()
	h := newUsecaseHarness(t, steps(models.TransactionSent, models.TransactionPending, models.TransactionPaid))

	var wg sync.WaitGroup
	outcomes := make(map[string]models.SettlementOutcome)
	var mu sync.Mutex
	for _, patientID := range []string{"patient-a", "patient-b"} {
		handle, err := h.usecase.StartPayment(ctx, registrationRequest(patientID))
		require.NoError(t, err)

		wg.Add(1)
		patientID := patientID
		require.NoError(t, h.usecase.OnSettled(handle, func(outcome models.SettlementOutcome) {
			mu.Lock()
			outcomes[patientID] = outcome
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	payments := h.clinic.payments.all()
	require.Len(t, payments, 2)
	for _, patientID := range []string{"patient-a", "patient-b"} {
		outcome := outcomes[patientID]
		require.NoError(t, outcome.Err)
		require.NotNil(t, outcome.Record)
		assert.Equal(t, patientID, outcome.Record.PatientID)
		assert.Equal(t, outcome.IntentID, outcome.Record.IntentID)
		require.NotNil(t, outcome.Record.AppointmentID)
		assert.Equal(t, "appt-onboarding-"+patientID[len(patientID)-1:], *outcome.Record.AppointmentID)
	}
	assert.NotEqual(t, payments[0].ReceiptNumber, payments[1].ReceiptNumber)
	assert.Equal(t, models.AppointmentPaymentPaid, h.clinic.appointments.status("appt-onboarding-a"))
	assert.Equal(t, models.AppointmentPaymentPaid, h.clinic.appointments.status("appt-onboarding-b"))
}

func TestPaymentUsecase_CancelAndStatus(t *testing.T) {
	ctx := context.Background()
	h := newUsecaseHarness(t, steps(models.TransactionPending))

	handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
	require.NoError(t, err)

	status, err := h.usecase.GetPaymentStatus(ctx, handle.IntentID)
	require.NoError(t, err)
	assert.False(t, status.Terminal)
	assert.Equal(t, "registration", status.Purpose)

	require.NoError(t, h.usecase.Cancel(ctx, handle))
	outcome := h.await(t, handle)
	assert.Equal(t, models.WorkflowStateCancelled, outcome.State)

	status, err = h.usecase.GetPaymentStatus(ctx, handle.IntentID)
	require.NoError(t, err)
	assert.True(t, status.Terminal)
	assert.Equal(t, string(models.WorkflowStateCancelled), status.State)
	assert.Equal(t, "the payment was cancelled", status.Error)

	err = h.usecase.Cancel(ctx, handle)
	assert.True(t, errors.Is(err, exceptions.KindPaymentAlreadySettled))
	assert.Empty(t, h.clinic.payments.all())
}

func TestPaymentUsecase_LookupsAfterEviction(t *testing.T) {
	ctx := context.Background()
	h := newUsecaseHarness(t, steps(models.TransactionPaid))

	handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
	require.NoError(t, err)
	outcome := h.await(t, handle)

	h.usecase.mu.Lock()
	delete(h.usecase.settled, handle.IntentID)
	h.usecase.mu.Unlock()

	status, err := h.usecase.GetPaymentStatus(ctx, handle.IntentID)
	require.NoError(t, err)
	assert.Equal(t, string(models.WorkflowStateConfirmed), status.State)
	assert.Equal(t, outcome.ReceiptNumber(), status.ReceiptNumber)
	assert.Equal(t, "5", status.Amount.String())

	var late models.SettlementOutcome
	err = h.usecase.OnSettled(handle, func(o models.SettlementOutcome) { late = o })
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStateConfirmed, late.State)
	assert.NoError(t, late.Err)
	require.NotNil(t, late.Record)
	assert.Equal(t, outcome.ReceiptNumber(), late.ReceiptNumber())
	assert.Equal(t, handle.IntentID, late.Intent.ID)
	assert.Equal(t, "5", late.Intent.Amount.String())

	_, err = h.usecase.GetPaymentStatus(ctx, "no-such-intent")
	assert.True(t, errors.Is(err, exceptions.KindPaymentNotFound))
	err = h.usecase.Cancel(ctx, models.WorkflowHandle{IntentID: "no-such-intent"})
	assert.True(t, errors.Is(err, exceptions.KindPaymentNotFound))
}

func TestPaymentUsecase_OnSettledFromJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("Late Subscriber Sees The Failure Kind", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionFailed))
		handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.NoError(t, err)
		outcome := h.await(t, handle)
		require.True(t, errors.Is(outcome.Err, exceptions.KindTransactionFailed))

		h.usecase.mu.Lock()
		delete(h.usecase.settled, handle.IntentID)
		h.usecase.mu.Unlock()

		var late models.SettlementOutcome
		require.NoError(t, h.usecase.OnSettled(handle, func(o models.SettlementOutcome) { late = o }))
		assert.Equal(t, models.WorkflowStateFailed, late.State)
		assert.True(t, errors.Is(late.Err, exceptions.KindTransactionFailed))
		assert.Nil(t, late.Record)
		assert.Empty(t, late.ReceiptNumber())
	})

	t.Run("Workflow Owned Elsewhere Is In Progress", func(t *testing.T) {
		h := newUsecaseHarness(t, nil)
		entry := &models.PaymentJournal{
			IntentID:  "remote-intent",
			IntentKey: "registration:patient-b",
			Purpose:   "registration",
			SubjectID: "patient-b",
			Amount:    "5.00",
			State:     models.WorkflowStateAwaitingConfirmation,
		}
		entry.SetCreatedAtUpdatedAt(time.Now())
		require.NoError(t, h.journal.Upsert(ctx, entry))

		called := false
		err := h.usecase.OnSettled(models.WorkflowHandle{IntentID: "remote-intent"}, func(models.SettlementOutcome) { called = true })

		assert.True(t, errors.Is(err, exceptions.KindPaymentAlreadyInProgress))
		assert.False(t, called)
	})
}

func TestPaymentUsecase_PaymentRecords(t *testing.T) {
	ctx := context.Background()
	h := newUsecaseHarness(t, steps(models.TransactionPaid))

	handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
	require.NoError(t, err)
	outcome := h.await(t, handle)

	records, err := h.usecase.ListPaymentRecords(ctx, &requests.ListPaymentRecords{PatientID: "patient-a"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, outcome.ReceiptNumber(), records[0].ReceiptNumber)

	records, err = h.usecase.ListPaymentRecords(ctx, &requests.ListPaymentRecords{PatientID: "patient-b"})
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = h.usecase.ListPaymentRecords(ctx, &requests.ListPaymentRecords{})
	assert.Error(t, err)

	record, err := h.usecase.FindPaymentRecordByReceipt(ctx, outcome.ReceiptNumber())
	require.NoError(t, err)
	assert.Equal(t, handle.IntentID, record.IntentID)

	_, err = h.usecase.FindPaymentRecordByReceipt(ctx, "MTRN-19700101-0")
	var customErr *exceptions.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, 404, customErr.StatusCode)
}

func TestPaymentUsecase_Shutdown(t *testing.T) {
	ctx := context.Background()
	h := newUsecaseHarness(t, steps(models.TransactionPending))

	handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, h.usecase.Shutdown(shutdownCtx))

	journal, ok := h.journal.get(handle.IntentID)
	require.True(t, ok)
	assert.False(t, journal.State.IsTerminal(), "unsettled intents are left for the sweeper")

	_, err = h.usecase.StartPayment(ctx, registrationRequest("patient-b"))
	assert.Error(t, err)
}

type scriptedPromptLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	calls      []string
}

func (l *scriptedPromptLimiter) Allow(ctx context.Context, msisdn string) (bool, time.Duration, error) {
	l.calls = append(l.calls, msisdn)
	return l.allowed, l.retryAfter, l.err
}

func TestPaymentUsecase_PromptQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("Exhausted Quota Sends No Prompt", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPaid))
		limiter := &scriptedPromptLimiter{allowed: false, retryAfter: 4 * time.Minute}
		h.usecase.PromptLimiter = limiter

		_, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))

		require.Error(t, err)
		assert.True(t, errors.Is(err, exceptions.KindPaymentPromptLimited))
		assert.Equal(t, []string{"0771234567"}, limiter.calls)
		assert.Empty(t, h.gateway.initiated)
		assert.False(t, h.locker.held(models.PaymentIntent{Purpose: models.PurposeRegistration, SubjectID: "patient-a"}.Key()))
	})

	t.Run("Limiter Outage Lets Prompt Through", func(t *testing.T) {
		h := newUsecaseHarness(t, steps(models.TransactionPaid))
		h.usecase.PromptLimiter = &scriptedPromptLimiter{err: errors.New("connection refused")}

		handle, err := h.usecase.StartPayment(ctx, registrationRequest("patient-a"))
		require.NoError(t, err)

		outcome := h.await(t, handle)
		assert.Equal(t, models.WorkflowStateConfirmed, outcome.State)
	})
}
