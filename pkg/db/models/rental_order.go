package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// RentalOrder is the per-vendor order produced by checkout.
type RentalOrder struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	VendorID        uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null"`
	QuotationID     *uuid.UUID           `gorm:"column:quotation_id;type:uuid"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null;default:'home_delivery'"`
	DeliveryAddress string               `gorm:"column:delivery_address;not null;default:''"`
	DeliveryCity    string               `gorm:"column:delivery_city;not null;default:''"`
	DeliveryState   string               `gorm:"column:delivery_state;not null;default:''"`
	DeliveryPincode string               `gorm:"column:delivery_pincode;not null;default:''"`
	Notes           *string              `gorm:"column:notes"`
	ConfirmedAt     *time.Time           `gorm:"column:confirmed_at"`
	Lines           []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Invoice         *Invoice             `gorm:"foreignKey:OrderID"`
	Pickup          *Pickup              `gorm:"foreignKey:OrderID"`
	Return          *ReturnRecord        `gorm:"foreignKey:OrderID"`
	Customer        *User                `gorm:"foreignKey:CustomerID"`
	Vendor          *User                `gorm:"foreignKey:VendorID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *RentalOrder) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// LatestReturnDate is the latest end date across the order's lines.
func (o RentalOrder) LatestReturnDate() (time.Time, bool) {
	var latest time.Time
	for _, line := range o.Lines {
		if line.EndDate.After(latest) {
			latest = line.EndDate
		}
	}
	return latest, !latest.IsZero()
}

// Subtotal sums the order lines.
func (o RentalOrder) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// OrderLine is a rental line copied from the cart at checkout.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity  int             `gorm:"column:quantity;not null"`
	StartDate time.Time       `gorm:"column:start_date;not null"`
	EndDate   time.Time       `gorm:"column:end_date;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// Total is unit price times quantity.
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// InventoryReservation holds stock for one order line over its window until released.
type InventoryReservation struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID               `gorm:"column:order_id;type:uuid;not null"`
	OrderLineID uuid.UUID               `gorm:"column:order_line_id;type:uuid;not null"`
	ProductID   uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID              `gorm:"column:variant_id;type:uuid"`
	Quantity    int                     `gorm:"column:quantity;not null"`
	StartDate   time.Time               `gorm:"column:start_date;not null"`
	EndDate     time.Time               `gorm:"column:end_date;not null"`
	Status      enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ReleasedAt  *time.Time              `gorm:"column:released_at"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (r *InventoryReservation) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
