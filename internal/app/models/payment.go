package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger row written after a confirmed payment.
type Payment struct {
	ID            string          `json:"id"`
	IntentID      string          `json:"intent_id"`
	PatientID     string          `json:"patient_id"`
	AppointmentID *string         `json:"appointment_id,omitempty"`
	MedicationID  *string         `json:"medication_id,omitempty"`
	Method        string          `json:"method"`
	Description   string          `json:"description"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
