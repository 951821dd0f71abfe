package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID               uuid.UUID        `json:"id"`
	VendorID         uuid.UUID        `json:"vendor_id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	ImageURL         *string          `json:"image_url,omitempty"`
	Tags             []string         `json:"tags"`
	Category         *CategoryDTO     `json:"category,omitempty"`
	CostPrice        *decimal.Decimal `json:"cost_price,omitempty"`
	SalesPrice       decimal.Decimal  `json:"sales_price"`
	PricePerHour     *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay      *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek     *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand   int              `json:"quantity_on_hand"`
	IsRentable       bool             `json:"is_rentable"`
	PublishOnWebsite bool             `json:"publish_on_website"`
	Variants         []VariantDTO     `json:"variants"`
	Attributes       []AttributeDTO   `json:"attributes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// VariantDTO is a product variant with its effective rates.
type VariantDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	SKU            string           `json:"sku,omitempty"`
	PricePerHour   *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay    *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek   *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand *int             `json:"quantity_on_hand,omitempty"`
}

// AttributeDTO is one attribute value attached to a product.
type AttributeDTO struct {
	ID        uuid.UUID `json:"id"`
	Attribute string    `json:"attribute"`
	Value     string    `json:"value"`
}

// CategoryDTO is a browsing category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
}

// AttributeDefinitionDTO is an attribute with all of its values.
type AttributeDefinitionDTO struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Values []AttributeDTO `json:"values"`
}

// ProductSummary is the listing row.
type ProductSummary struct {
	ID               uuid.UUID        `json:"id"`
	VendorID         uuid.UUID        `json:"vendor_id"`
	Name             string           `json:"name"`
	ImageURL         *string          `json:"image_url,omitempty"`
	CategorySlug     *string          `json:"category,omitempty"`
	SalesPrice       decimal.Decimal  `json:"sales_price"`
	PricePerDay      *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek     *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand   int              `json:"quantity_on_hand"`
	PublishOnWebsite bool             `json:"publish_on_website"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ProductListResult is one page of product summaries.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// AvailabilityDTO reports how many units can be rented.
type AvailabilityDTO struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Available int        `json:"available"`
}

// PriceQuoteDTO is the unit and line price for a window.
type PriceQuoteDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Available int             `json:"available"`
}

// NewProductDTO builds a DTO from the persisted model. Cost price is only exposed to managers.
func NewProductDTO(product *models.Product, includeCost bool) *ProductDTO {
	dto := &ProductDTO{
		ID:               product.ID,
		VendorID:         product.VendorID,
		Name:             product.Name,
		Description:      product.Description,
		ImageURL:         product.ImageURL,
		Tags:             append([]string{}, product.Tags...),
		SalesPrice:       product.SalesPrice,
		PricePerHour:     nullDecimalPtr(product.PricePerHour),
		PricePerDay:      nullDecimalPtr(product.PricePerDay),
		PricePerWeek:     nullDecimalPtr(product.PricePerWeek),
		QuantityOnHand:   product.QuantityOnHand,
		IsRentable:       product.IsRentable,
		PublishOnWebsite: product.PublishOnWebsite,
		Variants:         make([]VariantDTO, 0, len(product.Variants)),
		Attributes:       make([]AttributeDTO, 0, len(product.Attributes)),
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
	if includeCost {
		cost := product.CostPrice
		dto.CostPrice = &cost
	}
	if product.Category != nil {
		category := NewCategoryDTO(*product.Category)
		dto.Category = &category
	}
	for _, variant := range product.Variants {
		rates := EffectiveRates(product, &variant)
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:             variant.ID,
			Name:           variant.Name,
			SKU:            variant.SKU,
			PricePerHour:   nullDecimalPtr(rates.Hour),
			PricePerDay:    nullDecimalPtr(rates.Day),
			PricePerWeek:   nullDecimalPtr(rates.Week),
			QuantityOnHand: variant.QuantityOnHand,
		})
	}
	for _, value := range product.Attributes {
		dto.Attributes = append(dto.Attributes, newAttributeDTO(value))
	}
	return dto
}

// NewCategoryDTO maps a category row.
func NewCategoryDTO(category models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
	}
}

func newAttributeDTO(value models.AttributeValue) AttributeDTO {
	dto := AttributeDTO{ID: value.ID, Value: value.Value}
	if value.Attribute != nil {
		dto.Attribute = value.Attribute.Name
	}
	return dto
}

func newAttributeDefinitionDTO(attribute models.ProductAttribute) AttributeDefinitionDTO {
	dto := AttributeDefinitionDTO{
		ID:     attribute.ID,
		Name:   attribute.Name,
		Values: make([]AttributeDTO, 0, len(attribute.Values)),
	}
	for _, value := range attribute.Values {
		dto.Values = append(dto.Values, AttributeDTO{ID: value.ID, Attribute: attribute.Name, Value: value.Value})
	}
	return dto
}

func nullDecimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}
