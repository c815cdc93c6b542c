package models

import (
	"fmt"
	"maternity-service/internal/pkg/constvars"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentPurpose string

const (
	PurposeRegistration PaymentPurpose = "registration"
	PurposeAppointment  PaymentPurpose = "appointment"
	PurposeMedication   PaymentPurpose = "medication"
)

func (p PaymentPurpose) IsValid() bool {
	switch p {
	case PurposeRegistration, PurposeAppointment, PurposeMedication:
		return true
	}
	return false
}

// Description is the human readable ledger text for the purpose.
func (p PaymentPurpose) Description() string {
	switch p {
	case PurposeRegistration:
		return constvars.PaymentDescriptionRegistration
	case PurposeAppointment:
		return constvars.PaymentDescriptionAppointment
	case PurposeMedication:
		return constvars.PaymentDescriptionMedication
	}
	return string(p)
}

// TransactionStatus is the coarse status the gateway reports on each poll.
// It is never persisted directly.
type TransactionStatus string

const (
	TransactionSent      TransactionStatus = "sent"
	TransactionPending   TransactionStatus = "pending"
	TransactionPaid      TransactionStatus = "paid"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
	TransactionUnknown   TransactionStatus = "unknown"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionPaid || s == TransactionFailed || s == TransactionCancelled
}

// PollHandle identifies one in-flight gateway transaction.
type PollHandle struct {
	PollURL         string
	PaynowReference string
}

func (h PollHandle) IsZero() bool {
	return h.PollURL == ""
}

// PaymentIntent is immutable once it has been sent to the gateway.
type PaymentIntent struct {
	ID          string
	Amount      decimal.Decimal
	PayerMsisdn string
	Purpose     PaymentPurpose
	SubjectID   string
	CreatedAt   time.Time
}

// Reference is the merchant reference sent to the gateway.
func (i PaymentIntent) Reference() string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(string(i.Purpose)), i.ID)
}

// Key identifies the thing being paid for. Two intents with the same key
// must never poll at the same time.
func (i PaymentIntent) Key() string {
	return fmt.Sprintf(constvars.PaymentIntentLockKeyFormat, i.Purpose, i.SubjectID)
}
