package responses

import (
	"time"

	"github.com/shopspring/decimal"
)

type StartPayment struct {
	IntentID string `json:"intent_id"`
	State    string `json:"state"`
}

type PaymentStatus struct {
	IntentID      string          `json:"intent_id"`
	Purpose       string          `json:"purpose"`
	SubjectID     string          `json:"subject_id"`
	Amount        decimal.Decimal `json:"amount"`
	State         string          `json:"state"`
	Terminal      bool            `json:"terminal"`
	Polls         int             `json:"polls"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	Error         string          `json:"error,omitempty"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
}

type PaymentRecord struct {
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
