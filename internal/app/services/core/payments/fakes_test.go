package payments

import (
	"context"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/exceptions"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pollStep struct {
	status models.TransactionStatus
	err    error
}

func steps(statuses ...models.TransactionStatus) []pollStep {
	out := make([]pollStep, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, pollStep{status: status})
	}
	return out
}

type initiateCall struct {
	amount    decimal.Decimal
	msisdn    string
	reference string
}

// fakeGateway replays a poll script per poll URL; the last step repeats.
type fakeGateway struct {
	mu    sync.Mutex
	clock clockwork.Clock

	initiateErr  error
	initiateGate chan struct{}
	pollGate     chan struct{}
	script       []pollStep

	initiated []initiateCall
	pollTimes []time.Time
	perHandle map[string]int
}

func newFakeGateway(clock clockwork.Clock, script []pollStep) *fakeGateway {
	return &fakeGateway{clock: clock, script: script, perHandle: make(map[string]int)}
}

func (g *fakeGateway) Initiate(ctx context.Context, amount decimal.Decimal, payerMsisdn, referenceLabel string) (models.PollHandle, error) {
	g.mu.Lock()
	g.initiated = append(g.initiated, initiateCall{amount: amount, msisdn: payerMsisdn, reference: referenceLabel})
	gate := g.initiateGate
	initiateErr := g.initiateErr
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.PollHandle{}, exceptions.ErrPaymentGatewayUnavailable(ctx.Err())
		}
	}
	if initiateErr != nil {
		return models.PollHandle{}, initiateErr
	}
	return models.PollHandle{
		PollURL:         "https://paynow.test/interface/poll?guid=" + referenceLabel,
		PaynowReference: "PN-" + referenceLabel,
	}, nil
}

func (g *fakeGateway) Poll(ctx context.Context, handle models.PollHandle) (models.TransactionStatus, error) {
	g.mu.Lock()
	g.pollTimes = append(g.pollTimes, g.clock.Now())
	index := g.perHandle[handle.PollURL]
	g.perHandle[handle.PollURL]++
	step := pollStep{status: models.TransactionPending}
	if len(g.script) > 0 {
		if index >= len(g.script) {
			index = len(g.script) - 1
		}
		step = g.script[index]
	}
	gate := g.pollGate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return step.status, step.err
}

func (g *fakeGateway) polls() []time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]time.Time(nil), g.pollTimes...)
}

func (g *fakeGateway) pollCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pollTimes)
}

func (g *fakeGateway) initiateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.initiated)
}

type memPaymentRepository struct {
	mu        sync.Mutex
	payments  []models.Payment
	createErr error
}

func (r *memPaymentRepository) CreatePayment(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.payments {
		if existing.IntentID == payment.IntentID {
			return exceptions.ErrPostgresDBUniqueViolation(nil, "payments_intent_id_key")
		}
		if existing.ReceiptNumber == payment.ReceiptNumber {
			return exceptions.ErrPostgresDBUniqueViolation(nil, "payments_receipt_number_key")
		}
	}
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *memPaymentRepository) FindByPatientID(_ context.Context, patientID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, payment := range r.payments {
		if payment.PatientID == patientID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *memPaymentRepository) FindByReceiptNumber(_ context.Context, receiptNumber string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.ReceiptNumber == receiptNumber {
			found := payment
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepository) all() []models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Payment(nil), r.payments...)
}

type memAppointmentRepository struct {
	mu           sync.Mutex
	appointments map[string]models.Appointment
	updateErr    error
}

func newMemAppointmentRepository(appointments ...models.Appointment) *memAppointmentRepository {
	repo := &memAppointmentRepository{appointments: make(map[string]models.Appointment)}
	for _, appointment := range appointments {
		repo.appointments[appointment.ID] = appointment
	}
	return repo
}

func (r *memAppointmentRepository) FindByID(_ context.Context, appointmentID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[appointmentID]
	if !ok {
		return nil, nil
	}
	return &appointment, nil
}

func (r *memAppointmentRepository) FindOnboardingByPatientID(_ context.Context, patientID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appointment := range r.appointments {
		if appointment.PatientID == patientID && appointment.AppointmentType == "onboarding" {
			found := appointment
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memAppointmentRepository) UpdatePaymentStatus(_ context.Context, appointmentID string, status models.AppointmentPaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	appointment, ok := r.appointments[appointmentID]
	if !ok {
		return exceptions.ErrPostgresDBNoRowsAffected(nil, "appointments")
	}
	appointment.PaymentStatus = status
	r.appointments[appointmentID] = appointment
	return nil
}

func (r *memAppointmentRepository) status(appointmentID string) models.AppointmentPaymentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appointments[appointmentID].PaymentStatus
}

type memMedicationRepository struct {
	mu          sync.Mutex
	medications map[string]models.Medication
}

func newMemMedicationRepository(medications ...models.Medication) *memMedicationRepository {
	repo := &memMedicationRepository{medications: make(map[string]models.Medication)}
	for _, medication := range medications {
		repo.medications[medication.ID] = medication
	}
	return repo
}

func (r *memMedicationRepository) FindByID(_ context.Context, medicationID string) (*models.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	medication, ok := r.medications[medicationID]
	if !ok {
		return nil, nil
	}
	return &medication, nil
}

func (r *memMedicationRepository) UpdateConsumptionStatus(_ context.Context, medicationID string, status models.MedicationConsumptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	medication, ok := r.medications[medicationID]
	if !ok {
		return exceptions.ErrPostgresDBNoRowsAffected(nil, "medications")
	}
	medication.ConsumptionStatus = status
	r.medications[medicationID] = medication
	return nil
}

func (r *memMedicationRepository) status(medicationID string) models.MedicationConsumptionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.medications[medicationID].ConsumptionStatus
}

type memJournalRepository struct {
	mu        sync.Mutex
	entries   map[string]models.PaymentJournal
	upsertErr error
	// beforeSettle runs under the lock, standing in for a concurrent writer.
	beforeSettle func(entries map[string]models.PaymentJournal)
}

func newMemJournalRepository() *memJournalRepository {
	return &memJournalRepository{entries: make(map[string]models.PaymentJournal)}
}

func (r *memJournalRepository) Upsert(_ context.Context, journal *models.PaymentJournal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.entries[journal.IntentID] = *journal
	return nil
}

func (r *memJournalRepository) FindByIntentID(_ context.Context, intentID string) (*models.PaymentJournal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	journal, ok := r.entries[intentID]
	if !ok {
		return nil, nil
	}
	return &journal, nil
}

func (r *memJournalRepository) SettleIfPending(_ context.Context, journal *models.PaymentJournal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeSettle != nil {
		r.beforeSettle(r.entries)
	}
	stored, ok := r.entries[journal.IntentID]
	if !ok || stored.State.IsTerminal() {
		return false, nil
	}
	stored.State = journal.State
	stored.ErrorKind = journal.ErrorKind
	stored.ErrorMessage = journal.ErrorMessage
	stored.SettledAt = journal.SettledAt
	stored.UpdatedAt = journal.UpdatedAt
	r.entries[journal.IntentID] = stored
	return true, nil
}

func (r *memJournalRepository) FindStale(_ context.Context, olderThan time.Time) ([]models.PaymentJournal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentJournal
	for _, journal := range r.entries {
		if !journal.State.IsTerminal() && journal.UpdatedAt.Before(olderThan) {
			out = append(out, journal)
		}
	}
	return out, nil
}

func (r *memJournalRepository) get(intentID string) (models.PaymentJournal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	journal, ok := r.entries[intentID]
	return journal, ok
}

type memLocker struct {
	mu      sync.Mutex
	locks   map[string]string
	tryErr  error
	unlocks int
}

func newMemLocker() *memLocker {
	return &memLocker{locks: make(map[string]string)}
}

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tryErr != nil {
		return false, "", l.tryErr
	}
	if _, held := l.locks[key]; held {
		return false, "", nil
	}
	token := uuid.NewString()
	l.locks[key] = token
	return true, token, nil
}

func (l *memLocker) Unlock(_ context.Context, key, lockValue string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks[key] == lockValue {
		delete(l.locks, key)
		l.unlocks++
	}
	return nil
}

func (l *memLocker) Refresh(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

func (l *memLocker) held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.locks[key]
	return ok
}

type recordingSubscriber struct {
	name     string
	err      error
	mu       sync.Mutex
	outcomes []models.SettlementOutcome
}

func (s *recordingSubscriber) Name() string { return s.name }

func (s *recordingSubscriber) OnSettlement(_ context.Context, outcome models.SettlementOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
	return s.err
}

func (s *recordingSubscriber) received() []models.SettlementOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SettlementOutcome(nil), s.outcomes...)
}

type clinicFixture struct {
	payments     *memPaymentRepository
	appointments *memAppointmentRepository
	medications  *memMedicationRepository
	reconciler   *Reconciler
}

func newClinicFixture(t *testing.T, clock clockwork.Clock) *clinicFixture {
	t.Helper()
	receipts, err := NewReceiptGenerator("MTRN", 1, clock, time.UTC)
	require.NoError(t, err)

	fixture := &clinicFixture{
		payments: &memPaymentRepository{},
		appointments: newMemAppointmentRepository(
			models.Appointment{ID: "appt-onboarding-a", PatientID: "patient-a", AppointmentType: "onboarding", PaymentStatus: models.AppointmentPaymentUnpaid},
			models.Appointment{ID: "appt-onboarding-b", PatientID: "patient-b", AppointmentType: "onboarding", PaymentStatus: models.AppointmentPaymentUnpaid},
			models.Appointment{ID: "appt-antenatal-a", PatientID: "patient-a", AppointmentType: "antenatal", PaymentStatus: models.AppointmentPaymentUnpaid},
		),
		medications: newMemMedicationRepository(
			models.Medication{ID: "med-iron-a", PatientID: "patient-a", Name: "Ferrous sulphate", ConsumptionStatus: models.MedicationNotStarted},
		),
	}
	fixture.reconciler = NewReconciler(fixture.payments, fixture.appointments, fixture.medications, receipts, clock, zap.NewNop())
	return fixture
}

func registrationIntent(patientID string) models.PaymentIntent {
	return models.PaymentIntent{
		ID:          uuid.NewString(),
		Amount:      decimal.RequireFromString("5.00"),
		PayerMsisdn: "0771234567",
		Purpose:     models.PurposeRegistration,
		SubjectID:   patientID,
	}
}

type contextBlocker interface {
	BlockUntilContext(ctx context.Context, n int) error
}

// advanceUntil moves the fake clock by step each time the workflow is
// parked on a timer, until done reports true.
func advanceUntil(t *testing.T, clock clockwork.FakeClock, step time.Duration, done func() bool) {
	t.Helper()
	blocker, ok := clock.(contextBlocker)
	require.True(t, ok, "fake clock cannot block with a context")

	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		require.True(t, time.Now().Before(deadline), "condition not reached before deadline")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := blocker.BlockUntilContext(ctx, 1)
		cancel()
		if err == nil && !done() {
			clock.Advance(step)
		}
	}
}
