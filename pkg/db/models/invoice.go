package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// Invoice bills one order. Totals are derived from the amount fields on every save.
type Invoice struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber   string              `gorm:"column:invoice_number;not null;uniqueIndex"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status          enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	PaymentTerm     enums.PaymentTerm   `gorm:"column:payment_term;type:text;not null;default:'full_upfront'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxRate         decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,2);not null;default:18"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	SecurityDeposit decimal.Decimal     `gorm:"column:security_deposit;type:numeric(12,2);not null;default:0"`
	LateFee         decimal.Decimal     `gorm:"column:late_fee;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	AmountPaid      decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	DueDate         *time.Time          `gorm:"column:due_date"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	Payments        []Payment           `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Balance is total minus paid.
func (i Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// Payment is an append-only ledger row against an invoice.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID       uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method          enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ReferenceNumber string              `gorm:"column:reference_number;not null;default:''"`
	Notes           string              `gorm:"column:notes;not null;default:''"`
	RecordedBy      *uuid.UUID          `gorm:"column:recorded_by;type:uuid"`
	PaidAt          time.Time           `gorm:"column:paid_at;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
