package exceptions

import (
	"errors"
	"maternity-service/internal/pkg/constvars"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentErrorKinds(t *testing.T) {
	t.Run("Kinds Are Distinguishable With errors.Is", func(t *testing.T) {
		timeout := ErrConfirmationTimeout(2 * time.Minute)
		failed := ErrTransactionFailed(nil)

		assert.True(t, errors.Is(timeout, KindConfirmationTimeout))
		assert.False(t, errors.Is(timeout, KindTransactionFailed), "timeout must not look like a failed transaction")
		assert.True(t, errors.Is(failed, KindTransactionFailed))
		assert.False(t, errors.Is(failed, KindConfirmationTimeout))
	})

	t.Run("Wrapped Cause Is Preserved", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := ErrPaymentGatewayUnavailable(cause)

		assert.True(t, errors.Is(err, KindGatewayUnavailable))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.DevMessage, "connection refused")
		assert.Equal(t, constvars.StatusBadGateway, err.StatusCode)
	})

	t.Run("Reconciliation Partial Failure Carries Stage And Receipt", func(t *testing.T) {
		err := ErrReconciliationPartialFailure(errors.New("update failed"), constvars.ReconcileStageTargetStatus, "RCT-20261017-ABC")

		assert.True(t, errors.Is(err, KindReconciliationPartialFailure))
		assert.Contains(t, err.DevMessage, constvars.ReconcileStageTargetStatus)
		assert.Contains(t, err.DevMessage, "RCT-20261017-ABC")
	})

	t.Run("Location Points At Caller", func(t *testing.T) {
		err := ErrPaymentNotFound("intent-1")

		if assert.Len(t, err.Locations, 1) {
			assert.Contains(t, err.Locations[0].FunctionName, "TestPaymentErrorKinds")
		}
	})
}

func TestPaymentErrorJournalRoundTrip(t *testing.T) {
	t.Run("Settlement Kinds Survive The Journal", func(t *testing.T) {
		for _, original := range []*CustomError{
			ErrTransactionFailed(nil),
			ErrConfirmationTimeout(time.Minute),
			ErrPaymentGatewayRejected(errors.New("Invalid id")),
			ErrReconciliationPartialFailure(nil, constvars.ReconcileStagePaymentRecord, "RCT-1"),
		} {
			name := KindName(original)
			assert.NotEmpty(t, name)

			restored := ErrFromJournal(name, original.ClientMessage)

			assert.Equal(t, original.StatusCode, restored.StatusCode, name)
			assert.Equal(t, original.ClientMessage, restored.ClientMessage, name)
			assert.Equal(t, name, KindName(restored))
		}
	})

	t.Run("Non Settlement Errors Have No Name", func(t *testing.T) {
		assert.Empty(t, KindName(nil))
		assert.Empty(t, KindName(errors.New("boom")))
		assert.Empty(t, KindName(ErrPaymentNotFound("intent-1")))
	})

	t.Run("Unknown Name Stays Classified", func(t *testing.T) {
		restored := ErrFromJournal("", "")

		assert.True(t, errors.Is(restored, KindReconciliationPartialFailure))
		assert.Equal(t, constvars.ErrClientPaymentReconciliation, restored.ClientMessage)
	})
}
