package models

import "time"

type WorkflowState string

const (
	WorkflowStateIdle                 WorkflowState = "idle"
	WorkflowStateInitiating           WorkflowState = "initiating"
	WorkflowStateAwaitingConfirmation WorkflowState = "awaiting_confirmation"
	WorkflowStateConfirmed            WorkflowState = "confirmed"
	WorkflowStateFailed               WorkflowState = "failed"
	WorkflowStateCancelled            WorkflowState = "cancelled"
	WorkflowStateTimedOut             WorkflowState = "timed_out"
)

func (s WorkflowState) IsTerminal() bool {
	switch s {
	case WorkflowStateConfirmed, WorkflowStateFailed, WorkflowStateCancelled, WorkflowStateTimedOut:
		return true
	}
	return false
}

type WorkflowHandle struct {
	IntentID string
	State    WorkflowState
}

// SettlementOutcome is delivered exactly once per workflow. Err is nil only
// for a fully reconciled Confirmed outcome.
type SettlementOutcome struct {
	IntentID  string
	Intent    PaymentIntent
	State     WorkflowState
	Record    *Payment
	Err       error
	Polls     int
	StartedAt time.Time
	SettledAt time.Time
}

// ReceiptNumber is set once reconciliation generated one, even when a later
// stage failed.
func (o SettlementOutcome) ReceiptNumber() string {
	if o.Record == nil {
		return ""
	}
	return o.Record.ReceiptNumber
}
