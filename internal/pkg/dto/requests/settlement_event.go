package requests

import "time"

// SettlementEvent is published once per settled workflow for downstream
// receipt delivery workers.
type SettlementEvent struct {
	IntentID      string     `json:"intent_id"`
	Purpose       string     `json:"purpose"`
	SubjectID     string     `json:"subject_id"`
	PayerMsisdn   string     `json:"payer_msisdn"`
	Amount        string     `json:"amount"`
	State         string     `json:"state"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PatientID     string     `json:"patient_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	SettledAt     time.Time  `json:"settled_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}
