package payments

import "maternity-service/internal/app/models"

var transitions = map[models.WorkflowState]map[models.WorkflowState]struct{}{
	models.WorkflowStateIdle: {
		models.WorkflowStateInitiating: {},
		models.WorkflowStateCancelled:  {},
	},
	models.WorkflowStateInitiating: {
		models.WorkflowStateAwaitingConfirmation: {},
		models.WorkflowStateFailed:               {},
		models.WorkflowStateCancelled:            {},
	},
	models.WorkflowStateAwaitingConfirmation: {
		models.WorkflowStateConfirmed: {},
		models.WorkflowStateFailed:    {},
		models.WorkflowStateCancelled: {},
		models.WorkflowStateTimedOut:  {},
	},
}

// CanTransition reports whether the workflow may move from one state to
// another. Terminal states have no outgoing transitions.
func CanTransition(from, to models.WorkflowState) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}
