package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"numeric":  "must be a number",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"len":      "must be %s characters long",
	"oneof":    "must be one of [%s]",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
	"uuid":     "must be a valid UUID",
	"msisdn":   "msisdn must be a valid EcoCash number such as 0771234567 or 263771234567",
	"money":    "must be a positive amount with at most 2 decimal places",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"len":   true,
	"gt":    true,
	"gte":   true,
	"lt":    true,
	"lte":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "we cannot process your request, please try again"
	ErrClientSomethingWrongWithApplication = "something went wrong, please try again later"
	ErrClientServerLongRespond             = "the server took too long to respond, please try again"
	ErrClientPaymentInvalid                = "the payment details are invalid"
	ErrClientPaymentGatewayUnavailable     = "the mobile money service is unavailable, please try again shortly"
	ErrClientPaymentGatewayRejected        = "the mobile money service rejected the payment request"
	ErrClientPaymentFailed                 = "the payment failed"
	ErrClientPaymentCancelled              = "the payment was cancelled"
	ErrClientPaymentConfirmationTimeout    = "the payment was not confirmed in time, please check your phone before trying again"
	ErrClientPaymentReconciliation         = "the payment was received but could not be fully recorded, the clinic has been notified"
	ErrClientPaymentAlreadyInProgress      = "a payment for this item is already in progress"
	ErrClientPaymentNotFound               = "payment not found"
	ErrClientPaymentPromptLimited          = "too many payment prompts were sent to this phone, please try again later"
	ErrClientPaymentAlreadySettled         = "the payment has already been settled"
	ErrClientRecordNotFound                = "record not found"
	ErrClientRecordAlreadyExists           = "record already exists"
)

// Error messages for developers
const (
	ErrDevInvalidInput                 = "invalid input"
	ErrDevValidationFailed             = "validation failed"
	ErrDevCannotParseJSON              = "cannot parse JSON"
	ErrDevCannotMarshalJSON            = "cannot marshal JSON"
	ErrDevServerDeadlineExceeded       = "server deadline exceeded"
	ErrDevServerProcess                = "server process failed"
	ErrDevMissingRequestID             = "request id missing from context"
	ErrDevURLParamValidationFailed     = "url param '%s' failed validation"
	ErrDevCreateHTTPRequest            = "failed to create HTTP request"
	ErrDevSendHTTPRequest              = "failed to send HTTP request"
	ErrDevDBFailedToFindData           = "failed to find data in postgres"
	ErrDevDBFailedToInsertData         = "failed to insert data into postgres"
	ErrDevDBFailedToUpdateData         = "failed to update data in postgres"
	ErrDevDBFailedToIterateDataset     = "failed to iterate postgres dataset"
	ErrDevDBNoRowsAffected             = "no rows affected in %s"
	ErrDevDBUniqueViolation            = "unique constraint %s violated"
	ErrDevMongoFailedToFindDocument    = "failed to find document in mongo"
	ErrDevMongoFailedToUpsertDocument  = "failed to upsert document into mongo"
	ErrDevMongoFailedToUpdateDocument  = "failed to update document in mongo"
	ErrDevMongoFailedToIterateDocument = "failed to iterate mongo documents"
	ErrDevRedisGetNoData               = "failed to get data from redis with key %s"
	ErrDevRedisSetData                 = "failed to set data in redis"
	ErrDevRedisDeleteData              = "failed to delete data from redis"
	ErrDevRedisExpire                  = "failed to set expiry in redis"
	ErrDevRedisUnlock                  = "failed to release redis lock"
	ErrDevRedisIncrement               = "failed to increment redis counter"
	ErrDevRabbitMQPublishMessage       = "failed to publish message to queue %s"
	ErrDevMinioFailedToCreateObject    = "failed to create object in bucket %s"
	ErrDevPaymentValidation            = "payment validation failed"
	ErrDevPaymentGatewayUnavailable    = "payment gateway unreachable"
	ErrDevPaymentGatewayRejected       = "payment gateway rejected request"
	ErrDevPaymentGatewayIntegrity      = "payment gateway response hash mismatch"
	ErrDevPaymentFailed                = "payment transaction failed upstream"
	ErrDevPaymentCancelled             = "payment transaction cancelled"
	ErrDevPaymentConfirmationTimeout   = "no terminal payment status within %s"
	ErrDevPaymentReconciliation        = "payment confirmed upstream but reconciliation stopped at stage %s (receipt %q)"
	ErrDevPaymentAlreadyInProgress     = "payment intent %s already has an active poll handle"
	ErrDevPaymentNotFound              = "payment intent %s not found"
	ErrDevPaymentPromptLimited         = "payer prompt quota exhausted, retry after %s"
	ErrDevPaymentAlreadySettled        = "payment intent %s already settled"
	ErrDevPaymentRestored              = "payment outcome restored from journal (kind %q)"
	ErrDevRecordNotFound               = "%s not found"
)
