package models

import "time"

type AppointmentPaymentStatus string

const (
	AppointmentPaymentUnpaid AppointmentPaymentStatus = "Unpaid"
	AppointmentPaymentPaid   AppointmentPaymentStatus = "Paid"
)

type Appointment struct {
	ID              string                   `json:"id"`
	PatientID       string                   `json:"patient_id"`
	AppointmentType string                   `json:"appointment_type"`
	PaymentStatus   AppointmentPaymentStatus `json:"payment_status"`
	ScheduledAt     time.Time                `json:"scheduled_at"`
}
