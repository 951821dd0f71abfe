package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// Quotation is the customer's cart while in draft. A partial unique index keeps one draft per customer.
type Quotation struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID             `gorm:"column:customer_id;type:uuid;not null"`
	Status     enums.QuotationStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CouponCode *string               `gorm:"column:coupon_code"`
	OrderID    *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Lines      []QuotationLine       `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *Quotation) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}

// QuotationLine is a prospective rental of one product over [StartDate, EndDate).
type QuotationLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID uuid.UUID       `gorm:"column:quotation_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity    int             `gorm:"column:quantity;not null"`
	StartDate   time.Time       `gorm:"column:start_date;not null"`
	EndDate     time.Time       `gorm:"column:end_date;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	Variant     *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *QuotationLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// Total is unit price times quantity.
func (l QuotationLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
