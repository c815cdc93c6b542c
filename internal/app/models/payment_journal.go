package models

import "time"

// PaymentJournal mirrors one workflow in Mongo so its state survives the
// in-memory workflow and can be swept after a crash.
type PaymentJournal struct {
	IntentID      string        `bson:"_id"`
	IntentKey     string        `bson:"intentKey"`
	Purpose       string        `bson:"purpose"`
	SubjectID     string        `bson:"subjectId"`
	PayerMsisdn   string        `bson:"payerMsisdn"`
	Amount        string        `bson:"amount"`
	State         WorkflowState `bson:"state"`
	Polls         int           `bson:"polls"`
	ReceiptNumber string        `bson:"receiptNumber,omitempty"`
	PaymentID     string        `bson:"paymentId,omitempty"`
	ErrorKind     string        `bson:"errorKind,omitempty"`
	ErrorMessage  string        `bson:"errorMessage,omitempty"`
	SettledAt     *time.Time    `bson:"settledAt,omitempty"`
	TimeModel     `bson:",inline"`
}
