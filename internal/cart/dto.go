package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/checkout"
	"github.com/rentease/rentease-backend/pkg/db/models"
)

// LineDTO is one cart line.
type LineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Summary is the priced view of the draft cart.
type Summary struct {
	ID                 uuid.UUID        `json:"id"`
	Lines              []LineDTO        `json:"lines"`
	ItemCount          int              `json:"item_count"`
	CouponCode         *string          `json:"coupon_code,omitempty"`
	CouponMessage      string           `json:"coupon_message,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	TaxRate            decimal.Decimal  `json:"tax_rate"`
	checkout.Totals
}

// AddLineInput adds a product rental to the cart.
type AddLineInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gte=1"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   time.Time  `json:"end_date" validate:"required"`
}

// CouponResult is returned by coupon apply/remove.
type CouponResult struct {
	Applied    bool    `json:"applied"`
	CouponCode *string `json:"coupon_code,omitempty"`
	Message    string  `json:"message"`
	Summary    Summary `json:"cart"`
}

func newLineDTO(line models.QuotationLine) LineDTO {
	dto := LineDTO{
		ID:        line.ID,
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		StartDate: line.StartDate,
		EndDate:   line.EndDate,
		UnitPrice: line.UnitPrice,
		Total:     line.Total(),
	}
	if line.Product != nil {
		dto.ProductName = line.Product.Name
		dto.VendorID = line.Product.VendorID
	}
	if line.Variant != nil {
		dto.VariantName = line.Variant.Name
	}
	return dto
}
