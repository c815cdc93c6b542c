package payments

import (
	"context"
	"errors"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/dto/responses"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	settledRetention  = 10 * time.Minute
	subscriberTimeout = 15 * time.Second
	unlockTimeout     = 5 * time.Second
)

var errShuttingDown = errors.New("payment service is shutting down")

type liveWorkflow struct {
	workflow  *workflow
	lockToken string
	settledAt time.Time
}

type paymentUsecase struct {
	Gateway                  contracts.PaymentGatewayService
	Reconciler               paymentReconciler
	PaymentRepository        contracts.PaymentRepository
	PaymentJournalRepository contracts.PaymentJournalRepository
	Locker                   contracts.LockerService
	PromptLimiter            contracts.PromptLimiter
	Subscribers              []contracts.SettlementSubscriber
	Clock                    clockwork.Clock
	Workflow                 config.AppWorkflow
	Log                      *zap.Logger

	mu       sync.Mutex
	live     map[string]*liveWorkflow
	settled  map[string]*liveWorkflow
	keys     map[string]string
	closed   bool
	rootCtx  context.Context
	stopAll  context.CancelFunc
	running  sync.WaitGroup
	notifyWG sync.WaitGroup
}

func NewPaymentUsecase(
	gateway contracts.PaymentGatewayService,
	reconciler *Reconciler,
	paymentRepository contracts.PaymentRepository,
	paymentJournalRepository contracts.PaymentJournalRepository,
	locker contracts.LockerService,
	promptLimiter contracts.PromptLimiter,
	subscribers []contracts.SettlementSubscriber,
	clock clockwork.Clock,
	workflowConfig config.AppWorkflow,
	logger *zap.Logger,
) contracts.PaymentUsecase {
	uc := newPaymentUsecase(gateway, reconciler, paymentRepository, paymentJournalRepository, locker, subscribers, clock, workflowConfig, logger)
	uc.PromptLimiter = promptLimiter
	return uc
}

func newPaymentUsecase(
	gateway contracts.PaymentGatewayService,
	reconciler paymentReconciler,
	paymentRepository contracts.PaymentRepository,
	paymentJournalRepository contracts.PaymentJournalRepository,
	locker contracts.LockerService,
	subscribers []contracts.SettlementSubscriber,
	clock clockwork.Clock,
	workflowConfig config.AppWorkflow,
	logger *zap.Logger,
) *paymentUsecase {
	rootCtx, stopAll := context.WithCancel(context.Background())
	return &paymentUsecase{
		Gateway:                  gateway,
		Reconciler:               reconciler,
		PaymentRepository:        paymentRepository,
		PaymentJournalRepository: paymentJournalRepository,
		Locker:                   locker,
		Subscribers:              subscribers,
		Clock:                    clock,
		Workflow:                 workflowConfig,
		Log:                      logger,
		live:                     make(map[string]*liveWorkflow),
		settled:                  make(map[string]*liveWorkflow),
		keys:                     make(map[string]string),
		rootCtx:                  rootCtx,
		stopAll:                  stopAll,
	}
}

func (uc *paymentUsecase) StartPayment(ctx context.Context, request *requests.StartPayment) (models.WorkflowHandle, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.StartPayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	utils.SanitizeStartPaymentRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("paymentUsecase.StartPayment validation error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return models.WorkflowHandle{}, exceptions.ErrPaymentValidation(err)
	}

	msisdn, err := utils.ToLocalMsisdn(request.Msisdn)
	if err != nil {
		return models.WorkflowHandle{}, exceptions.ErrPaymentValidation(err)
	}

	if err := uc.checkPromptQuota(ctx, msisdn); err != nil {
		return models.WorkflowHandle{}, err
	}

	intent := models.PaymentIntent{
		ID:          uuid.NewString(),
		Amount:      request.Amount,
		PayerMsisdn: msisdn,
		Purpose:     models.PaymentPurpose(request.Purpose),
		SubjectID:   request.SubjectID,
		CreatedAt:   uc.Clock.Now(),
	}
	key := intent.Key()

	if err := uc.reserve(key, intent.ID); err != nil {
		uc.Log.Warn("paymentUsecase.StartPayment duplicate intent rejected",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, key),
		)
		return models.WorkflowHandle{}, err
	}

	acquired, lockToken, err := uc.Locker.TryLock(ctx, key, uc.Workflow.LockTTL())
	if err != nil || !acquired {
		uc.release(key, intent.ID)
		if err != nil {
			uc.Log.Error("paymentUsecase.StartPayment error acquiring intent lock",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingRedisKey, key),
				zap.Error(err),
			)
			return models.WorkflowHandle{}, err
		}
		uc.Log.Warn("paymentUsecase.StartPayment intent locked by another instance",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, key),
		)
		return models.WorkflowHandle{}, exceptions.ErrPaymentAlreadyInProgress(key)
	}

	uc.writeJournal(ctx, intent, models.WorkflowStateIdle, nil)

	wf := newWorkflow(intent, uc.Gateway, uc.Reconciler, uc.Clock, Timings{
		GraceDelay:          uc.Workflow.GraceDelay,
		PollInterval:        uc.Workflow.PollInterval,
		ConfirmationTimeout: uc.Workflow.ConfirmationTimeout,
	}, uc.Log)
	entry := &liveWorkflow{workflow: wf, lockToken: lockToken}
	wf.OnSettled(func(outcome models.SettlementOutcome) {
		uc.handleSettlement(entry, outcome)
	})

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		uc.release(key, intent.ID)
		uc.unlock(key, lockToken)
		return models.WorkflowHandle{}, exceptions.ErrServerProcess(errShuttingDown)
	}
	uc.live[intent.ID] = entry
	uc.running.Add(1)
	uc.mu.Unlock()

	runCtx := utils.WithRequestID(uc.rootCtx, requestID)
	go func() {
		defer uc.running.Done()
		wf.run(runCtx)
	}()

	utils.LogBusinessEvent(uc.Log, "payment_started", requestID,
		zap.String(constvars.LoggingIntentIDKey, intent.ID),
		zap.String(constvars.LoggingPurposeKey, string(intent.Purpose)),
		zap.String(constvars.LoggingSubjectIDKey, intent.SubjectID),
		zap.String(constvars.LoggingAmountKey, intent.Amount.StringFixed(2)),
	)
	return wf.Handle(), nil
}

func (uc *paymentUsecase) OnSettled(handle models.WorkflowHandle, callback func(models.SettlementOutcome)) error {
	if entry := uc.lookup(handle.IntentID); entry != nil {
		entry.workflow.OnSettled(callback)
		return nil
	}
	ctx := context.Background()
	journal, err := uc.PaymentJournalRepository.FindByIntentID(ctx, handle.IntentID)
	if err != nil {
		return err
	}
	if journal == nil {
		return exceptions.ErrPaymentNotFound(handle.IntentID)
	}
	if !journal.State.IsTerminal() {
		// Journaled but not running here: another instance owns the workflow.
		return exceptions.ErrPaymentAlreadyInProgress(journal.IntentKey)
	}

	outcome, err := uc.outcomeFromJournal(ctx, journal)
	if err != nil {
		return err
	}
	callback(outcome)
	return nil
}

// outcomeFromJournal serves subscribers that arrive after the settled
// workflow was evicted from memory.
func (uc *paymentUsecase) outcomeFromJournal(ctx context.Context, journal *models.PaymentJournal) (models.SettlementOutcome, error) {
	amount, _ := decimal.NewFromString(journal.Amount)
	outcome := models.SettlementOutcome{
		IntentID: journal.IntentID,
		Intent: models.PaymentIntent{
			ID:          journal.IntentID,
			Amount:      amount,
			PayerMsisdn: journal.PayerMsisdn,
			Purpose:     models.PaymentPurpose(journal.Purpose),
			SubjectID:   journal.SubjectID,
			CreatedAt:   journal.CreatedAt,
		},
		State:     journal.State,
		Polls:     journal.Polls,
		StartedAt: journal.CreatedAt,
	}
	if journal.SettledAt != nil {
		outcome.SettledAt = *journal.SettledAt
	}
	if journal.State != models.WorkflowStateConfirmed || journal.ErrorKind != "" {
		outcome.Err = exceptions.ErrFromJournal(journal.ErrorKind, journal.ErrorMessage)
	}
	if journal.ReceiptNumber != "" {
		record, err := uc.PaymentRepository.FindByReceiptNumber(ctx, journal.ReceiptNumber)
		if err != nil {
			return models.SettlementOutcome{}, err
		}
		outcome.Record = record
	}
	return outcome, nil
}

func (uc *paymentUsecase) Cancel(ctx context.Context, handle models.WorkflowHandle) error {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.Cancel called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, handle.IntentID),
	)

	if entry := uc.lookup(handle.IntentID); entry != nil {
		return entry.workflow.Cancel()
	}

	journal, err := uc.PaymentJournalRepository.FindByIntentID(ctx, handle.IntentID)
	if err != nil {
		return err
	}
	if journal != nil {
		return exceptions.ErrPaymentAlreadySettled(handle.IntentID)
	}
	return exceptions.ErrPaymentNotFound(handle.IntentID)
}

func (uc *paymentUsecase) GetPaymentStatus(ctx context.Context, intentID string) (*responses.PaymentStatus, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.GetPaymentStatus called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, intentID),
	)

	if entry := uc.lookup(intentID); entry != nil {
		return statusFromWorkflow(entry.workflow), nil
	}

	journal, err := uc.PaymentJournalRepository.FindByIntentID(ctx, intentID)
	if err != nil {
		uc.Log.Error("paymentUsecase.GetPaymentStatus error fetching journal",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	if journal == nil {
		return nil, exceptions.ErrPaymentNotFound(intentID)
	}
	return statusFromJournal(journal), nil
}

func (uc *paymentUsecase) ListPaymentRecords(ctx context.Context, request *requests.ListPaymentRecords) ([]responses.PaymentRecord, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.ListPaymentRecords called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, request.PatientID),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	payments, err := uc.PaymentRepository.FindByPatientID(ctx, request.PatientID)
	if err != nil {
		uc.Log.Error("paymentUsecase.ListPaymentRecords error fetching payments",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	records := make([]responses.PaymentRecord, 0, len(payments))
	for i := range payments {
		records = append(records, toPaymentRecord(&payments[i]))
	}
	return records, nil
}

func (uc *paymentUsecase) FindPaymentRecordByReceipt(ctx context.Context, receiptNumber string) (*responses.PaymentRecord, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.FindPaymentRecordByReceipt called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReceiptNumberKey, receiptNumber),
	)

	payment, err := uc.PaymentRepository.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, exceptions.ErrRecordNotFound(nil, receiptNumber)
	}
	record := toPaymentRecord(payment)
	return &record, nil
}

func (uc *paymentUsecase) HasLiveWorkflow(intentID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.live[intentID]
	return ok
}

// Shutdown stops every live workflow without settling it and waits for
// in-flight reconciliations and subscribers. Unsettled intents keep their
// journal entry and are swept later.
func (uc *paymentUsecase) Shutdown(ctx context.Context) error {
	uc.mu.Lock()
	uc.closed = true
	remaining := len(uc.live)
	uc.mu.Unlock()

	uc.Log.Info("paymentUsecase.Shutdown stopping live workflows", zap.Int("live_workflows", remaining))
	uc.stopAll()

	finished := make(chan struct{})
	go func() {
		uc.running.Wait()
		uc.notifyWG.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkPromptQuota lets the prompt through when the limiter backend is down;
// the intent lock still guards against duplicates.
func (uc *paymentUsecase) checkPromptQuota(ctx context.Context, msisdn string) error {
	if uc.PromptLimiter == nil {
		return nil
	}
	requestID := utils.GetRequestID(ctx)

	allowed, retryAfter, err := uc.PromptLimiter.Allow(ctx, msisdn)
	if err != nil {
		uc.Log.Warn("paymentUsecase.StartPayment prompt limiter unavailable",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil
	}
	if !allowed {
		uc.Log.Warn("paymentUsecase.StartPayment prompt quota exhausted",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingMsisdnKey, msisdn),
			zap.Duration(constvars.LoggingDurationKey, retryAfter),
		)
		return exceptions.ErrPaymentPromptLimited(retryAfter)
	}
	return nil
}

func (uc *paymentUsecase) reserve(key, intentID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.closed {
		return exceptions.ErrServerProcess(errShuttingDown)
	}
	uc.pruneSettledLocked()
	if _, busy := uc.keys[key]; busy {
		return exceptions.ErrPaymentAlreadyInProgress(key)
	}
	uc.keys[key] = intentID
	return nil
}

func (uc *paymentUsecase) release(key, intentID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.keys[key] == intentID {
		delete(uc.keys, key)
	}
}

func (uc *paymentUsecase) lookup(intentID string) *liveWorkflow {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if entry, ok := uc.live[intentID]; ok {
		return entry
	}
	uc.pruneSettledLocked()
	return uc.settled[intentID]
}

func (uc *paymentUsecase) pruneSettledLocked() {
	now := uc.Clock.Now()
	for intentID, entry := range uc.settled {
		if now.Sub(entry.settledAt) >= settledRetention {
			delete(uc.settled, intentID)
		}
	}
}

// handleSettlement runs first among the workflow's callbacks. The journal
// is final before the intent key is released.
func (uc *paymentUsecase) handleSettlement(entry *liveWorkflow, outcome models.SettlementOutcome) {
	logFields := []zap.Field{
		zap.String(constvars.LoggingIntentIDKey, outcome.IntentID),
		zap.String(constvars.LoggingWorkflowStateKey, string(outcome.State)),
		zap.Int(constvars.LoggingPollCountKey, outcome.Polls),
		zap.String(constvars.LoggingReceiptNumberKey, outcome.ReceiptNumber()),
	}
	switch {
	case errors.Is(outcome.Err, exceptions.KindReconciliationPartialFailure):
		uc.Log.Error("paymentUsecase.handleSettlement payment needs manual reconciliation", append(logFields, zap.Error(outcome.Err))...)
	case outcome.Err != nil:
		uc.Log.Warn("paymentUsecase.handleSettlement payment settled unsuccessfully", append(logFields, zap.Error(outcome.Err))...)
	default:
		uc.Log.Info("paymentUsecase.handleSettlement payment settled", logFields...)
	}

	journalCtx, cancel := context.WithTimeout(context.Background(), subscriberTimeout)
	uc.writeJournal(journalCtx, outcome.Intent, outcome.State, &outcome)
	cancel()

	key := outcome.Intent.Key()
	uc.mu.Lock()
	delete(uc.live, outcome.IntentID)
	entry.settledAt = uc.Clock.Now()
	uc.settled[outcome.IntentID] = entry
	if uc.keys[key] == outcome.IntentID {
		delete(uc.keys, key)
	}
	closed := uc.closed
	if !closed {
		uc.notifyWG.Add(1)
	}
	uc.mu.Unlock()

	uc.unlock(key, entry.lockToken)

	if closed {
		uc.notifySubscribers(outcome)
		return
	}
	go func() {
		defer uc.notifyWG.Done()
		uc.notifySubscribers(outcome)
	}()
}

func (uc *paymentUsecase) unlock(key, lockToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	if err := uc.Locker.Unlock(ctx, key, lockToken); err != nil {
		uc.Log.Warn("paymentUsecase.unlock error releasing intent lock",
			zap.String(constvars.LoggingRedisKey, key),
			zap.Error(err),
		)
	}
}

func (uc *paymentUsecase) notifySubscribers(outcome models.SettlementOutcome) {
	for _, subscriber := range uc.Subscribers {
		ctx, cancel := context.WithTimeout(context.Background(), subscriberTimeout)
		err := subscriber.OnSettlement(ctx, outcome)
		cancel()
		if err != nil {
			uc.Log.Warn("paymentUsecase.notifySubscribers subscriber failed",
				zap.String("subscriber", subscriber.Name()),
				zap.String(constvars.LoggingIntentIDKey, outcome.IntentID),
				zap.Error(err),
			)
		}
	}
}

func (uc *paymentUsecase) writeJournal(ctx context.Context, intent models.PaymentIntent, state models.WorkflowState, outcome *models.SettlementOutcome) {
	journal := &models.PaymentJournal{
		IntentID:    intent.ID,
		IntentKey:   intent.Key(),
		Purpose:     string(intent.Purpose),
		SubjectID:   intent.SubjectID,
		PayerMsisdn: intent.PayerMsisdn,
		Amount:      intent.Amount.StringFixed(2),
		State:       state,
	}
	journal.CreatedAt = intent.CreatedAt
	journal.SetUpdatedAt(uc.Clock.Now())
	if outcome != nil {
		settledAt := outcome.SettledAt
		journal.Polls = outcome.Polls
		journal.SettledAt = &settledAt
		journal.ReceiptNumber = outcome.ReceiptNumber()
		if outcome.Record != nil {
			journal.PaymentID = outcome.Record.ID
		}
		journal.ErrorKind = exceptions.KindName(outcome.Err)
		journal.ErrorMessage = clientMessage(outcome.Err)
	}

	if err := uc.PaymentJournalRepository.Upsert(ctx, journal); err != nil {
		uc.Log.Warn("paymentUsecase.writeJournal error writing payment journal",
			zap.String(constvars.LoggingIntentIDKey, intent.ID),
			zap.String(constvars.LoggingWorkflowStateKey, string(state)),
			zap.Error(err),
		)
	}
}

func statusFromWorkflow(wf *workflow) *responses.PaymentStatus {
	snapshot := wf.snapshot()
	status := &responses.PaymentStatus{
		IntentID:  wf.intent.ID,
		Purpose:   string(wf.intent.Purpose),
		SubjectID: wf.intent.SubjectID,
		Amount:    wf.intent.Amount,
		State:     string(snapshot.State),
		Terminal:  snapshot.State.IsTerminal(),
		Polls:     snapshot.Polls,
	}
	if snapshot.Outcome != nil {
		settledAt := snapshot.Outcome.SettledAt
		status.SettledAt = &settledAt
		status.ReceiptNumber = snapshot.Outcome.ReceiptNumber()
		status.Error = clientMessage(snapshot.Outcome.Err)
	}
	return status
}

func statusFromJournal(journal *models.PaymentJournal) *responses.PaymentStatus {
	status := &responses.PaymentStatus{
		IntentID:      journal.IntentID,
		Purpose:       journal.Purpose,
		SubjectID:     journal.SubjectID,
		State:         string(journal.State),
		Terminal:      journal.State.IsTerminal(),
		Polls:         journal.Polls,
		ReceiptNumber: journal.ReceiptNumber,
		Error:         journal.ErrorMessage,
		SettledAt:     journal.SettledAt,
	}
	status.Amount, _ = decimal.NewFromString(journal.Amount)
	return status
}

// clientMessage keeps internal detail out of status responses.
func clientMessage(err error) string {
	if err == nil {
		return ""
	}
	var customErr *exceptions.CustomError
	if errors.As(err, &customErr) {
		return customErr.ClientMessage
	}
	return err.Error()
}

func toPaymentRecord(payment *models.Payment) responses.PaymentRecord {
	return responses.PaymentRecord{
		ID:            payment.ID,
		IntentID:      payment.IntentID,
		PatientID:     payment.PatientID,
		AppointmentID: payment.AppointmentID,
		MedicationID:  payment.MedicationID,
		Method:        payment.Method,
		Description:   payment.Description,
		ReceiptNumber: payment.ReceiptNumber,
		Amount:        payment.Amount,
		CreatedAt:     payment.CreatedAt,
	}
}
