package queries

const (
	GetMedicationByID = `
		SELECT
			id,
			patient_id,
			name,
			consumption_status
		FROM medications
		WHERE id = $1
	`

	UpdateMedicationConsumptionStatus = `
		UPDATE medications
		SET consumption_status = $2
		WHERE id = $1
	`
)
