package payments

import (
	"fmt"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
)

// ReceiptGenerator issues receipt numbers of the form
// PREFIX-YYYYMMDD-ID where ID is an upper-case base36 snowflake. Numbers
// are unique per node; nodes must not share an id.
type ReceiptGenerator struct {
	prefix   string
	node     *snowflake.Node
	clock    clockwork.Clock
	location *time.Location
}

func NewReceiptGenerator(prefix string, nodeID int64, clock clockwork.Clock, location *time.Location) (*ReceiptGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &ReceiptGenerator{
		prefix:   prefix,
		node:     node,
		clock:    clock,
		location: location,
	}, nil
}

func (g *ReceiptGenerator) Next() string {
	date := g.clock.Now().In(g.location).Format(constvars.ReceiptDateLayout)
	return fmt.Sprintf("%s-%s-%s", g.prefix, date, strings.ToUpper(g.node.Generate().Base36()))
}

// RenderReceipt is the plain-text receipt archived and handed to the
// payer notification workers.
func RenderReceipt(record *models.Payment, intent models.PaymentIntent, location *time.Location) string {
	if location == nil {
		location = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RECEIPT %s\n", record.ReceiptNumber)
	fmt.Fprintf(&b, "Date:        %s\n", record.CreatedAt.In(location).Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Patient:     %s\n", record.PatientID)
	if record.AppointmentID != nil {
		fmt.Fprintf(&b, "Appointment: %s\n", *record.AppointmentID)
	}
	if record.MedicationID != nil {
		fmt.Fprintf(&b, "Medication:  %s\n", *record.MedicationID)
	}
	fmt.Fprintf(&b, "Description: %s\n", record.Description)
	fmt.Fprintf(&b, "Method:      %s (%s)\n", record.Method, intent.PayerMsisdn)
	fmt.Fprintf(&b, "Amount:      USD %s\n", record.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Reference:   %s\n", intent.Reference())
	return b.String()
}
