package constvars

const (
	PaymentMethodEcoCash = "EcoCash"

	PaymentDescriptionRegistration = "Registration fee"
	PaymentDescriptionAppointment  = "Appointment fee"
	PaymentDescriptionMedication   = "Medication purchase"

	OnboardingAppointmentType = "onboarding"
)

const (
	PaymentIntentLockKeyFormat  = "payment:intent:%s:%s"
	PaymentPromptLimitKeyFormat = "payment:prompts:%s:%d"
	PaymentSweeperLockKey       = "payment:sweeper:leader"
)

const (
	ReconcileStageResolveTarget = "resolve_target"
	ReconcileStagePaymentRecord = "payment_record"
	ReconcileStageTargetStatus  = "target_status"
)

const (
	ReceiptDateLayout       = "20060102"
	ReceiptObjectNameFormat = "receipts/%s/%s.txt"
)
