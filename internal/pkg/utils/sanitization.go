package utils

import (
	"maternity-service/internal/pkg/dto/requests"
	"strings"
)

func SanitizeStartPaymentRequest(input *requests.StartPayment) {
	input.Msisdn = NormalizeMsisdn(input.Msisdn)
	input.Purpose = strings.ToLower(strings.TrimSpace(input.Purpose))
	input.SubjectID = strings.TrimSpace(input.SubjectID)
}
