package constvars

const (
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	PaymentStartedSuccessfully        = "payment started, waiting for payer confirmation"
	PaymentStatusFetchedSuccessfully  = "payment status fetched successfully"
	PaymentCancelledSuccessfully      = "payment cancelled successfully"
	PaymentRecordsFetchedSuccessfully = "payment records fetched successfully"
	PaymentRecordFetchedSuccessfully  = "payment record fetched successfully"
)
