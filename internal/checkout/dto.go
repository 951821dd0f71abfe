package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/checkout"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// CheckoutInput captures the optional data supplied at checkout. Empty delivery fields are
// filled from the customer's profile.
type CheckoutInput struct {
	CouponCode      *string `json:"coupon_code,omitempty"`
	DeliveryMethod  string  `json:"delivery_method,omitempty"`
	DeliveryAddress string  `json:"delivery_address,omitempty" validate:"max=500"`
	DeliveryCity    string  `json:"delivery_city,omitempty" validate:"max=100"`
	DeliveryState   string  `json:"delivery_state,omitempty" validate:"max=100"`
	DeliveryPincode string  `json:"delivery_pincode,omitempty" validate:"max=10"`
	Notes           string  `json:"notes,omitempty" validate:"max=1000"`
	PaymentTerm     string  `json:"payment_term,omitempty"`
}

// VendorOrderResult is one order produced by checkout.
type VendorOrderResult struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	Status          enums.OrderStatus `json:"status"`
	InvoiceID       uuid.UUID         `json:"invoice_id"`
	InvoiceNumber   string            `json:"invoice_number"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	Tax             decimal.Decimal   `json:"tax"`
	SecurityDeposit decimal.Decimal   `json:"security_deposit"`
	Total           decimal.Decimal   `json:"total"`
}

// Result is the outcome of a successful checkout.
type Result struct {
	QuotationID uuid.UUID           `json:"quotation_id"`
	CouponCode  *string             `json:"coupon_code,omitempty"`
	Orders      []VendorOrderResult `json:"orders"`
	checkout.Totals
}
