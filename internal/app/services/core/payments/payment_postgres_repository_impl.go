package payments

import (
	"context"
	"database/sql"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/queries"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

type paymentPostgresRepository struct {
	DB *sql.DB
}

func NewPaymentPostgresRepository(db *sql.DB) contracts.PaymentRepository {
	return &paymentPostgresRepository{
		DB: db,
	}
}

// CreatePayment appends a ledger row. Duplicate receipt numbers or a second
// row for the same intent surface as a unique violation.
func (repo *paymentPostgresRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := repo.DB.ExecContext(ctx, queries.InsertPayment,
		payment.ID,
		payment.IntentID,
		payment.PatientID,
		payment.AppointmentID,
		payment.MedicationID,
		payment.Method,
		payment.Description,
		payment.ReceiptNumber,
		payment.Amount,
		payment.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return exceptions.ErrPostgresDBUniqueViolation(err, pqErr.Constraint)
		}
		return exceptions.ErrPostgresDBInsertData(err)
	}
	return nil
}

func (repo *paymentPostgresRepository) FindByPatientID(ctx context.Context, patientID string) ([]models.Payment, error) {
	rows, err := repo.DB.QueryContext(ctx, queries.GetPaymentsByPatientID, patientID)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, exceptions.ErrPostgresDBFindData(err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}
	return payments, nil
}

func (repo *paymentPostgresRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	var payment models.Payment
	err := scanPayment(repo.DB.QueryRowContext(ctx, queries.GetPaymentByReceiptNumber, receiptNumber), &payment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &payment, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner, payment *models.Payment) error {
	return row.Scan(
		&payment.ID,
		&payment.IntentID,
		&payment.PatientID,
		&payment.AppointmentID,
		&payment.MedicationID,
		&payment.Method,
		&payment.Description,
		&payment.ReceiptNumber,
		&payment.Amount,
		&payment.CreatedAt,
	)
}
