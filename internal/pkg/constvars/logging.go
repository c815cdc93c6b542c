package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingRequestKey        = "request"
	LoggingResponseKey       = "response"
	LoggingDataKey           = "data"
	LoggingEndpointKey       = "endpoint"
	LoggingMethodKey         = "method"
	LoggingRemoteAddrKey     = "remote_addr"
	LoggingUserAgentKey      = "user_agent"
	LoggingQueryKey          = "query"
	LoggingStatusCodeKey     = "status_code"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"
	LoggingOperationKey      = "operation"
	LoggingErrorTypeKey      = "error_type"
	LoggingErrorCodeKey      = "error_code"
	LoggingErrorMessageKey   = "error_message"
	LoggingResponseLengthKey = "response_length"
)

const (
	LoggingRedisKey              = "redis_key"
	LoggingLockValueKey          = "lock_value"
	LoggingLockStoredValueKey    = "lock_stored_value"
	LoggingLockExpectedValueKey  = "lock_expected_value"
	LoggingLockExpirationTimeKey = "lock_expiration_time"
)

const (
	LoggingIntentIDKey          = "intent_id"
	LoggingPurposeKey           = "purpose"
	LoggingSubjectIDKey         = "subject_id"
	LoggingMsisdnKey            = "msisdn"
	LoggingAmountKey            = "amount"
	LoggingWorkflowStateKey     = "workflow_state"
	LoggingWorkflowFromStateKey = "workflow_from_state"
	LoggingTransactionStatusKey = "transaction_status"
	LoggingPollCountKey         = "poll_count"
	LoggingPollURLKey           = "poll_url"
	LoggingReceiptNumberKey     = "receipt_number"
	LoggingPaymentIDKey         = "payment_id"
	LoggingPatientIDKey         = "patient_id"
	LoggingAppointmentIDKey     = "appointment_id"
	LoggingMedicationIDKey      = "medication_id"
	LoggingReconcileStageKey    = "reconcile_stage"
	LoggingPaynowStatusKey      = "paynow_status"
	LoggingPaynowReferenceKey   = "paynow_reference"
	LoggingQueueNameKey         = "queue_name"
	LoggingBucketNameKey        = "bucket_name"
	LoggingObjectNameKey        = "object_name"
	LoggingSweptCountKey        = "swept_count"
)
