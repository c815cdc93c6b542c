package constvars

const (
	PaynowDefaultInitiateURL = "https://www.paynow.co.zw/interface/remotetransaction"
	PaynowDefaultMethod      = "ecocash"
	PaynowMessageStatus      = "Message"
)

// Paynow form fields, in the order they are hashed.
const (
	PaynowFieldID             = "id"
	PaynowFieldReference      = "reference"
	PaynowFieldAmount         = "amount"
	PaynowFieldAdditionalInfo = "additionalinfo"
	PaynowFieldReturnURL      = "returnurl"
	PaynowFieldResultURL      = "resulturl"
	PaynowFieldAuthEmail      = "authemail"
	PaynowFieldPhone          = "phone"
	PaynowFieldMethod         = "method"
	PaynowFieldStatus         = "status"
	PaynowFieldHash           = "hash"
	PaynowFieldPollURL        = "pollurl"
	PaynowFieldError          = "error"
	PaynowFieldPaynowRef      = "paynowreference"
)

const (
	PaynowResponseStatusOk    = "ok"
	PaynowResponseStatusError = "error"
)

// Transaction statuses reported by Paynow on poll, lowercased.
const (
	PaynowStatusPaid             = "paid"
	PaynowStatusAwaitingDelivery = "awaiting delivery"
	PaynowStatusDelivered        = "delivered"
	PaynowStatusCreated          = "created"
	PaynowStatusSent             = "sent"
	PaynowStatusCancelled        = "cancelled"
	PaynowStatusFailed           = "failed"
	PaynowStatusDisputed         = "disputed"
	PaynowStatusRefunded         = "refunded"
)
