package contracts

import (
	"context"
	"maternity-service/internal/app/models"
)

type AppointmentRepository interface {
	FindByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	FindOnboardingByPatientID(ctx context.Context, patientID string) (*models.Appointment, error)
	UpdatePaymentStatus(ctx context.Context, appointmentID string, status models.AppointmentPaymentStatus) error
}
