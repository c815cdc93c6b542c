package requests

import "github.com/shopspring/decimal"

type StartPayment struct {
	Amount    decimal.Decimal `json:"amount" validate:"required,money"`
	Msisdn    string          `json:"msisdn" validate:"required,msisdn"`
	Purpose   string          `json:"purpose" validate:"required,oneof=registration appointment medication"`
	SubjectID string          `json:"subject_id" validate:"required"`
}

type ListPaymentRecords struct {
	PatientID string `validate:"required"`
}
