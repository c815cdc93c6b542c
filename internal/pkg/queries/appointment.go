package queries

const (
	GetAppointmentByID = `
		SELECT
			id,
			patient_id,
			appointment_type,
			payment_status,
			scheduled_at
		FROM appointments
		WHERE id = $1
	`

	GetOnboardingAppointmentByPatientID = `
		SELECT
			id,
			patient_id,
			appointment_type,
			payment_status,
			scheduled_at
		FROM appointments
		WHERE patient_id = $1 AND appointment_type = $2
		ORDER BY scheduled_at ASC
		LIMIT 1
	`

	UpdateAppointmentPaymentStatus = `
		UPDATE appointments
		SET payment_status = $2
		WHERE id = $1
	`
)
