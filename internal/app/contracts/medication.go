package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

type MedicationRepository interface {
	FindByID(ctx context.Context, medicationID string) (*models.Medication, error)
	UpdateConsumptionStatus(ctx context.Context, medicationID string, status models.MedicationConsumptionStatus) error
}
