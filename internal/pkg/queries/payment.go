package queries

const (
	InsertPayment = `
		INSERT INTO payments (
			id,
			intent_id,
			patient_id,
			appointment_id,
			medication_id,
			method,
			description,
			receipt_number,
			amount,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	GetPaymentsByPatientID = `
		SELECT
			id,
			intent_id,
			patient_id,
			appointment_id,
			medication_id,
			method,
			description,
			receipt_number,
			amount,
			created_at
		FROM payments
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	GetPaymentByReceiptNumber = `
		SELECT
			id,
			intent_id,
			patient_id,
			appointment_id,
			medication_id,
			method,
			description,
			receipt_number,
			amount,
			created_at
		FROM payments
		WHERE receipt_number = $1
	`
)
