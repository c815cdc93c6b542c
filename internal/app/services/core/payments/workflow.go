package payments

import (
	"context"
	"errors"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Timings drive the confirmation loop.
type Timings struct {
	GraceDelay          time.Duration
	PollInterval        time.Duration
	ConfirmationTimeout time.Duration
}

type paymentReconciler interface {
	Reconcile(ctx context.Context, intent models.PaymentIntent) (*models.Payment, error)
}

// workflow owns one PaymentIntent and its PollHandle from start to a
// terminal state. All fields below mu are guarded by it.
type workflow struct {
	intent     models.PaymentIntent
	gateway    contracts.PaymentGatewayService
	reconciler paymentReconciler
	clock      clockwork.Clock
	timings    Timings
	log        *zap.Logger

	mu            sync.Mutex
	state         models.WorkflowState
	handle        models.PollHandle
	polls         int
	startedAt     time.Time
	awaitingSince time.Time
	outcome       *models.SettlementOutcome
	callbacks     []func(models.SettlementOutcome)
	stopRun       context.CancelFunc

	cancelled chan struct{}
	done      chan struct{}
}

func newWorkflow(
	intent models.PaymentIntent,
	gateway contracts.PaymentGatewayService,
	reconciler paymentReconciler,
	clock clockwork.Clock,
	timings Timings,
	logger *zap.Logger,
) *workflow {
	return &workflow{
		intent:     intent,
		gateway:    gateway,
		reconciler: reconciler,
		clock:      clock,
		timings:    timings,
		log:        logger.With(zap.String(constvars.LoggingIntentIDKey, intent.ID)),
		state:      models.WorkflowStateIdle,
		startedAt:  clock.Now(),
		cancelled:  make(chan struct{}),
		done:       make(chan struct{}),
		stopRun:    func() {},
	}
}

func (w *workflow) Handle() models.WorkflowHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.WorkflowHandle{IntentID: w.intent.ID, State: w.state}
}

type workflowSnapshot struct {
	State   models.WorkflowState
	Polls   int
	Outcome *models.SettlementOutcome
}

func (w *workflow) snapshot() workflowSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return workflowSnapshot{State: w.state, Polls: w.polls, Outcome: w.outcome}
}

// OnSettled registers callback for the settlement outcome. A workflow that
// already settled calls back immediately on the caller's goroutine.
func (w *workflow) OnSettled(callback func(models.SettlementOutcome)) {
	w.mu.Lock()
	if w.outcome != nil {
		outcome := *w.outcome
		w.mu.Unlock()
		callback(outcome)
		return
	}
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Done is closed once the outcome has been delivered.
func (w *workflow) Done() <-chan struct{} {
	return w.done
}

// Cancel stops the loop locally. The upstream transaction is not touched.
func (w *workflow) Cancel() error {
	w.mu.Lock()
	if w.state.IsTerminal() {
		w.mu.Unlock()
		return exceptions.ErrPaymentAlreadySettled(w.intent.ID)
	}
	from := w.state
	w.state = models.WorkflowStateCancelled
	w.handle = models.PollHandle{}
	close(w.cancelled)
	stop := w.stopRun
	w.mu.Unlock()

	stop()
	w.log.Info("workflow.Cancel cancelled by caller",
		zap.String(constvars.LoggingWorkflowFromStateKey, string(from)),
	)
	w.deliver(models.WorkflowStateCancelled, nil, exceptions.ErrTransactionCancelled(errors.New("cancelled by caller")))
	return nil
}

// run drives the workflow to a terminal state. It returns without
// delivering an outcome only when ctx is cancelled from outside.
func (w *workflow) run(ctx context.Context) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	w.mu.Lock()
	w.stopRun = stop
	w.mu.Unlock()

	if !w.transition(models.WorkflowStateIdle, models.WorkflowStateInitiating) {
		return
	}

	w.log.Info("workflow.run initiating payment",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingPurposeKey, string(w.intent.Purpose)),
		zap.String(constvars.LoggingSubjectIDKey, w.intent.SubjectID),
		zap.String(constvars.LoggingAmountKey, w.intent.Amount.StringFixed(2)),
	)

	handle, err := w.gateway.Initiate(ctx, w.intent.Amount, w.intent.PayerMsisdn, w.intent.Reference())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error("workflow.run initiate failed", zap.Error(err))
		w.finish(models.WorkflowStateInitiating, models.WorkflowStateFailed, err)
		return
	}

	w.mu.Lock()
	if w.state != models.WorkflowStateInitiating {
		// cancelled while the push was in flight; the handle is dropped unused
		w.mu.Unlock()
		return
	}
	w.handle = handle
	w.state = models.WorkflowStateAwaitingConfirmation
	w.awaitingSince = w.clock.Now()
	w.mu.Unlock()

	w.log.Info("workflow.run awaiting confirmation",
		zap.String(constvars.LoggingPaynowReferenceKey, handle.PaynowReference),
	)

	if !w.sleep(ctx, w.timings.GraceDelay) {
		return
	}

	for {
		elapsed := w.clock.Since(w.awaitingSince)
		if elapsed >= w.timings.ConfirmationTimeout {
			w.log.Warn("workflow.run confirmation timed out",
				zap.Int(constvars.LoggingPollCountKey, w.pollCount()),
				zap.Duration(constvars.LoggingDurationKey, elapsed),
			)
			w.finish(models.WorkflowStateAwaitingConfirmation, models.WorkflowStateTimedOut,
				exceptions.ErrConfirmationTimeout(w.timings.ConfirmationTimeout))
			return
		}

		status, err := w.gateway.Poll(ctx, handle)

		w.mu.Lock()
		w.polls++
		polls := w.polls
		discard := w.state.IsTerminal() || ctx.Err() != nil
		w.mu.Unlock()
		if discard {
			return
		}

		if err != nil {
			if !errors.Is(err, exceptions.KindGatewayUnavailable) {
				w.log.Error("workflow.run poll failed", zap.Int(constvars.LoggingPollCountKey, polls), zap.Error(err))
				w.finish(models.WorkflowStateAwaitingConfirmation, models.WorkflowStateFailed, err)
				return
			}
			w.log.Warn("workflow.run poll unavailable, retrying", zap.Int(constvars.LoggingPollCountKey, polls), zap.Error(err))
			status = models.TransactionUnknown
		}

		w.log.Debug("workflow.run poll returned",
			zap.Int(constvars.LoggingPollCountKey, polls),
			zap.String(constvars.LoggingTransactionStatusKey, string(status)),
		)

		switch status {
		case models.TransactionPaid:
			w.confirm(ctx)
			return
		case models.TransactionFailed:
			w.finish(models.WorkflowStateAwaitingConfirmation, models.WorkflowStateFailed,
				exceptions.ErrTransactionFailed(fmt.Errorf("gateway reported %s after %d polls", status, polls)))
			return
		case models.TransactionCancelled:
			w.finish(models.WorkflowStateAwaitingConfirmation, models.WorkflowStateCancelled,
				exceptions.ErrTransactionCancelled(errors.New("cancelled by payer")))
			return
		}

		wait := w.timings.PollInterval
		if remaining := w.timings.ConfirmationTimeout - w.clock.Since(w.awaitingSince); remaining < wait {
			wait = remaining
		}
		if !w.sleep(ctx, wait) {
			return
		}
	}
}

func (w *workflow) confirm(ctx context.Context) {
	if !w.transition(models.WorkflowStateAwaitingConfirmation, models.WorkflowStateConfirmed) {
		return
	}
	w.log.Info("workflow.confirm payment confirmed, reconciling", zap.Int(constvars.LoggingPollCountKey, w.pollCount()))

	record, err := w.reconciler.Reconcile(context.WithoutCancel(ctx), w.intent)
	w.deliver(models.WorkflowStateConfirmed, record, err)
}

// sleep reports false when the wait was cut short by cancellation.
func (w *workflow) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil && !w.isTerminal()
	}
	timer := w.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-w.cancelled:
		return false
	case <-ctx.Done():
		return false
	}
}

// transition commits from -> to under the lock. It fails when the
// workflow has already moved on, which is how a racing Cancel wins.
func (w *workflow) transition(from, to models.WorkflowState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from || !CanTransition(from, to) {
		return false
	}
	w.state = to
	if to.IsTerminal() {
		w.handle = models.PollHandle{}
	}
	return true
}

func (w *workflow) finish(from, to models.WorkflowState, err error) {
	if !w.transition(from, to) {
		return
	}
	w.deliver(to, nil, err)
}

func (w *workflow) deliver(state models.WorkflowState, record *models.Payment, err error) {
	w.mu.Lock()
	if w.outcome != nil {
		w.mu.Unlock()
		return
	}
	outcome := models.SettlementOutcome{
		IntentID:  w.intent.ID,
		Intent:    w.intent,
		State:     state,
		Record:    record,
		Err:       err,
		Polls:     w.polls,
		StartedAt: w.startedAt,
		SettledAt: w.clock.Now(),
	}
	w.outcome = &outcome
	callbacks := w.callbacks
	w.callbacks = nil
	close(w.done)
	w.mu.Unlock()

	for _, callback := range callbacks {
		callback(outcome)
	}
}

func (w *workflow) isTerminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.IsTerminal()
}

func (w *workflow) pollCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polls
}
