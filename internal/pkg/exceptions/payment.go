package exceptions

import (
	"errors"
	"fmt"
	"maternity-service/internal/pkg/constvars"
	"time"

	"github.com/go-playground/validator/v10"
)

// Payment error kinds. Every payment CustomError wraps exactly one of these.
var (
	KindValidation                   = errors.New("payment validation error")
	KindGatewayUnavailable           = errors.New("payment gateway unavailable")
	KindGatewayRejected              = errors.New("payment gateway rejected")
	KindGatewayIntegrity             = errors.New("payment gateway integrity failure")
	KindTransactionFailed            = errors.New("transaction failed")
	KindTransactionCancelled         = errors.New("transaction cancelled")
	KindConfirmationTimeout          = errors.New("confirmation timeout")
	KindReconciliationPartialFailure = errors.New("reconciliation partial failure")
	KindPaymentAlreadyInProgress     = errors.New("payment already in progress")
	KindPaymentNotFound              = errors.New("payment not found")
	KindPaymentAlreadySettled        = errors.New("payment already settled")
	KindPaymentPromptLimited         = errors.New("payment prompt limited")
)

var (
	ErrPaymentValidation = func(err error) *CustomError {
		clientMessage := constvars.ErrClientPaymentInvalid
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			clientMessage = FormatFirstValidationError(err)
		}
		return buildKindError(KindValidation, err, constvars.StatusBadRequest, clientMessage, constvars.ErrDevPaymentValidation)
	}
	ErrPaymentGatewayUnavailable = func(err error) *CustomError {
		return buildKindError(KindGatewayUnavailable, err, constvars.StatusBadGateway, constvars.ErrClientPaymentGatewayUnavailable, constvars.ErrDevPaymentGatewayUnavailable)
	}
	ErrPaymentGatewayRejected = func(err error) *CustomError {
		return buildKindError(KindGatewayRejected, err, constvars.StatusBadGateway, constvars.ErrClientPaymentGatewayRejected, constvars.ErrDevPaymentGatewayRejected)
	}
	ErrPaymentGatewayIntegrity = func(err error) *CustomError {
		return buildKindError(KindGatewayIntegrity, err, constvars.StatusBadGateway, constvars.ErrClientPaymentGatewayUnavailable, constvars.ErrDevPaymentGatewayIntegrity)
	}
	ErrTransactionFailed = func(err error) *CustomError {
		return buildKindError(KindTransactionFailed, err, constvars.StatusPaymentRequired, constvars.ErrClientPaymentFailed, constvars.ErrDevPaymentFailed)
	}
	ErrTransactionCancelled = func(err error) *CustomError {
		return buildKindError(KindTransactionCancelled, err, constvars.StatusConflict, constvars.ErrClientPaymentCancelled, constvars.ErrDevPaymentCancelled)
	}
	ErrConfirmationTimeout = func(ceiling time.Duration) *CustomError {
		return buildKindError(KindConfirmationTimeout, nil, constvars.StatusGatewayTimeout, constvars.ErrClientPaymentConfirmationTimeout, fmt.Sprintf(constvars.ErrDevPaymentConfirmationTimeout, ceiling))
	}
	ErrReconciliationPartialFailure = func(err error, stage, receiptNumber string) *CustomError {
		return buildKindError(KindReconciliationPartialFailure, err, constvars.StatusInternalServerError, constvars.ErrClientPaymentReconciliation, fmt.Sprintf(constvars.ErrDevPaymentReconciliation, stage, receiptNumber))
	}
	ErrPaymentAlreadyInProgress = func(intentKey string) *CustomError {
		return buildKindError(KindPaymentAlreadyInProgress, nil, constvars.StatusConflict, constvars.ErrClientPaymentAlreadyInProgress, fmt.Sprintf(constvars.ErrDevPaymentAlreadyInProgress, intentKey))
	}
	ErrPaymentNotFound = func(intentID string) *CustomError {
		return buildKindError(KindPaymentNotFound, nil, constvars.StatusNotFound, constvars.ErrClientPaymentNotFound, fmt.Sprintf(constvars.ErrDevPaymentNotFound, intentID))
	}
	ErrPaymentAlreadySettled = func(intentID string) *CustomError {
		return buildKindError(KindPaymentAlreadySettled, nil, constvars.StatusConflict, constvars.ErrClientPaymentAlreadySettled, fmt.Sprintf(constvars.ErrDevPaymentAlreadySettled, intentID))
	}
	ErrPaymentPromptLimited = func(retryAfter time.Duration) *CustomError {
		return buildKindError(KindPaymentPromptLimited, nil, constvars.StatusTooManyRequests, constvars.ErrClientPaymentPromptLimited, fmt.Sprintf(constvars.ErrDevPaymentPromptLimited, retryAfter))
	}
)

type persistedKind struct {
	name       string
	kind       error
	statusCode int
}

// Kinds that can end a workflow, by the name stored in the payment journal.
var persistedKinds = []persistedKind{
	{"validation", KindValidation, constvars.StatusBadRequest},
	{"gateway_unavailable", KindGatewayUnavailable, constvars.StatusBadGateway},
	{"gateway_rejected", KindGatewayRejected, constvars.StatusBadGateway},
	{"gateway_integrity", KindGatewayIntegrity, constvars.StatusBadGateway},
	{"transaction_failed", KindTransactionFailed, constvars.StatusPaymentRequired},
	{"transaction_cancelled", KindTransactionCancelled, constvars.StatusConflict},
	{"confirmation_timeout", KindConfirmationTimeout, constvars.StatusGatewayTimeout},
	{"reconciliation_partial_failure", KindReconciliationPartialFailure, constvars.StatusInternalServerError},
}

// KindName returns the journal name of the payment kind err wraps, or an
// empty string when err is nil or carries no settlement kind.
func KindName(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range persistedKinds {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return ""
}

// ErrFromJournal rebuilds a settlement error from what the journal kept.
// Unknown names fall back to a reconciliation failure so the error stays
// classified.
func ErrFromJournal(kindName, clientMessage string) *CustomError {
	entry := persistedKinds[len(persistedKinds)-1]
	for _, k := range persistedKinds {
		if k.name == kindName {
			entry = k
			break
		}
	}
	if clientMessage == "" {
		clientMessage = constvars.ErrClientPaymentReconciliation
	}
	return buildKindError(entry.kind, nil, entry.statusCode, clientMessage, fmt.Sprintf(constvars.ErrDevPaymentRestored, kindName))
}
