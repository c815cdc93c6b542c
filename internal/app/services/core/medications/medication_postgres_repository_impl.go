package medications

import (
	"context"
	"database/sql"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/queries"
)

const medicationsTable = "medications"

type medicationPostgresRepository struct {
	DB *sql.DB
}

func NewMedicationPostgresRepository(db *sql.DB) contracts.MedicationRepository {
	return &medicationPostgresRepository{
		DB: db,
	}
}

func (repo *medicationPostgresRepository) FindByID(ctx context.Context, medicationID string) (*models.Medication, error) {
	var medication models.Medication
	err := repo.DB.QueryRowContext(ctx, queries.GetMedicationByID, medicationID).Scan(
		&medication.ID,
		&medication.PatientID,
		&medication.Name,
		&medication.ConsumptionStatus,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &medication, nil
}

func (repo *medicationPostgresRepository) UpdateConsumptionStatus(ctx context.Context, medicationID string, status models.MedicationConsumptionStatus) error {
	result, err := repo.DB.ExecContext(ctx, queries.UpdateMedicationConsumptionStatus, medicationID, status)
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	if rowsAffected == 0 {
		return exceptions.ErrPostgresDBNoRowsAffected(nil, medicationsTable)
	}
	return nil
}
