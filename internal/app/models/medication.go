package models

type MedicationConsumptionStatus string

const (
	MedicationNotStarted MedicationConsumptionStatus = "not-started"
	MedicationInProgress MedicationConsumptionStatus = "in-progress"
	MedicationCompleted  MedicationConsumptionStatus = "completed"
)

type Medication struct {
	ID                string                      `json:"id"`
	PatientID         string                      `json:"patient_id"`
	Name              string                      `json:"name"`
	ConsumptionStatus MedicationConsumptionStatus `json:"consumption_status"`
}
