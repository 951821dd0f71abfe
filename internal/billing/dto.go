package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// PaymentDTO is one recorded payment.
type PaymentDTO struct {
	ID              uuid.UUID           `json:"id"`
	Amount          decimal.Decimal     `json:"amount"`
	Method          enums.PaymentMethod `json:"payment_method"`
	ReferenceNumber string              `json:"reference_number,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	PaidAt          time.Time           `json:"paid_at"`
}

// InvoiceDTO is the API view of an invoice.
type InvoiceDTO struct {
	ID              uuid.UUID           `json:"id"`
	InvoiceNumber   string              `json:"invoice_number"`
	OrderID         uuid.UUID           `json:"order_id"`
	Status          enums.InvoiceStatus `json:"status"`
	PaymentTerm     enums.PaymentTerm   `json:"payment_term"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TaxRate         decimal.Decimal     `json:"tax_rate"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	SecurityDeposit decimal.Decimal     `json:"security_deposit"`
	LateFee         decimal.Decimal     `json:"late_fee"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	AmountPaid      decimal.Decimal     `json:"amount_paid"`
	Balance         decimal.Decimal     `json:"balance"`
	DueDate         *time.Time          `json:"due_date,omitempty"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	Payments        []PaymentDTO        `json:"payments"`
	CreatedAt       time.Time           `json:"created_at"`
}

// RecordPaymentInput is a manual payment entered by staff.
type RecordPaymentInput struct {
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"payment_method" validate:"required"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// PayInput is the customer's simulated checkout payment.
type PayInput struct {
	Method string `json:"payment_method" validate:"required"`
}

// PaymentResult is returned after a payment lands.
type PaymentResult struct {
	Payment PaymentDTO `json:"payment"`
	Invoice InvoiceDTO `json:"invoice"`
}

// EmailResult reports whether the invoice mail went out.
type EmailResult struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// NewInvoiceDTO maps an invoice and its preloaded payments.
func NewInvoiceDTO(invoice *models.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:              invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		OrderID:         invoice.OrderID,
		Status:          invoice.Status,
		PaymentTerm:     invoice.PaymentTerm,
		Subtotal:        invoice.Subtotal,
		DiscountAmount:  invoice.DiscountAmount,
		TaxRate:         invoice.TaxRate,
		TaxAmount:       invoice.TaxAmount,
		SecurityDeposit: invoice.SecurityDeposit,
		LateFee:         invoice.LateFee,
		TotalAmount:     invoice.TotalAmount,
		AmountPaid:      invoice.AmountPaid,
		Balance:         invoice.Balance(),
		DueDate:         invoice.DueDate,
		PaidAt:          invoice.PaidAt,
		Payments:        make([]PaymentDTO, 0, len(invoice.Payments)),
		CreatedAt:       invoice.CreatedAt,
	}
	for _, p := range invoice.Payments {
		dto.Payments = append(dto.Payments, newPaymentDTO(p))
	}
	return dto
}

func newPaymentDTO(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:              p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		PaidAt:          p.PaidAt,
	}
}
