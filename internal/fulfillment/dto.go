package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// PickupInput is the handover record entered by staff. PickupDate defaults to now.
type PickupInput struct {
	PickupDate *time.Time `json:"pickup_date,omitempty"`
	PickedBy   string     `json:"picked_by" validate:"required,max=200"`
	IDProof    string     `json:"id_proof,omitempty" validate:"max=200"`
	Notes      string     `json:"notes,omitempty" validate:"max=1000"`
}

// ReturnInput is the return record entered by staff. ReturnDate defaults to now.
type ReturnInput struct {
	ReturnDate     *time.Time      `json:"return_date,omitempty"`
	ReturnedBy     string          `json:"returned_by" validate:"required,max=200"`
	ConditionNotes string          `json:"condition_notes,omitempty" validate:"max=1000"`
	DamageFee      decimal.Decimal `json:"damage_fee"`
}

// PickupResult is returned after a pickup is recorded.
type PickupResult struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
	Pickup  orders.PickupDTO  `json:"pickup"`
}

// ReturnResult is returned after a return is recorded. Invoice fields are absent when the
// order has no invoice yet.
type ReturnResult struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	Return        orders.ReturnDTO    `json:"return"`
	LateDays      int64               `json:"late_days"`
	InvoiceID     *uuid.UUID          `json:"invoice_id,omitempty"`
	InvoiceStatus enums.InvoiceStatus `json:"invoice_status,omitempty"`
	InvoiceTotal  *decimal.Decimal    `json:"invoice_total,omitempty"`
}
