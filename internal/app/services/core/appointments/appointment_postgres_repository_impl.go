package appointments

import (
	"context"
	"database/sql"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/queries"
)

const appointmentsTable = "appointments"

type appointmentPostgresRepository struct {
	DB *sql.DB
}

func NewAppointmentPostgresRepository(db *sql.DB) contracts.AppointmentRepository {
	return &appointmentPostgresRepository{
		DB: db,
	}
}

func (repo *appointmentPostgresRepository) FindByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return repo.findOne(ctx, queries.GetAppointmentByID, appointmentID)
}

// FindOnboardingByPatientID returns the patient's earliest onboarding
// appointment, which is what a registration fee settles.
func (repo *appointmentPostgresRepository) FindOnboardingByPatientID(ctx context.Context, patientID string) (*models.Appointment, error) {
	return repo.findOne(ctx, queries.GetOnboardingAppointmentByPatientID, patientID, constvars.OnboardingAppointmentType)
}

func (repo *appointmentPostgresRepository) UpdatePaymentStatus(ctx context.Context, appointmentID string, status models.AppointmentPaymentStatus) error {
	result, err := repo.DB.ExecContext(ctx, queries.UpdateAppointmentPaymentStatus, appointmentID, status)
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	if rowsAffected == 0 {
		return exceptions.ErrPostgresDBNoRowsAffected(nil, appointmentsTable)
	}
	return nil
}

func (repo *appointmentPostgresRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Appointment, error) {
	var appointment models.Appointment
	err := repo.DB.QueryRowContext(ctx, query, args...).Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.AppointmentType,
		&appointment.PaymentStatus,
		&appointment.ScheduledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &appointment, nil
}
