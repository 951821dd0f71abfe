package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a rentable item owned by a vendor. QuantityOnHand is the physical stock;
// reservations are tracked separately and never mutate it.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	CategoryID       *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Name             string              `gorm:"column:name;not null"`
	Description      string              `gorm:"column:description;not null;default:''"`
	ImageURL         *string             `gorm:"column:image_url"`
	Tags             pq.StringArray      `gorm:"column:tags;type:text[];not null;default:'{}'"`
	CostPrice        decimal.Decimal     `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	SalesPrice       decimal.Decimal     `gorm:"column:sales_price;type:numeric(12,2);not null;default:0"`
	PricePerHour     decimal.NullDecimal `gorm:"column:price_per_hour;type:numeric(12,2)"`
	PricePerDay      decimal.NullDecimal `gorm:"column:price_per_day;type:numeric(12,2)"`
	PricePerWeek     decimal.NullDecimal `gorm:"column:price_per_week;type:numeric(12,2)"`
	QuantityOnHand   int                 `gorm:"column:quantity_on_hand;not null;default:0"`
	IsRentable       bool                `gorm:"column:is_rentable;not null"`
	PublishOnWebsite bool                `gorm:"column:publish_on_website;not null;default:false"`
	Category         *Category           `gorm:"foreignKey:CategoryID"`
	Variants         []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Attributes       []AttributeValue    `gorm:"many2many:product_attribute_values;joinForeignKey:ProductID;joinReferences:AttributeValueID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	return nil
}

// ProductVariant overrides rates or stock of its parent. Unset fields fall back to the product.
type ProductVariant struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Name           string              `gorm:"column:name;not null"`
	SKU            string              `gorm:"column:sku;not null;default:''"`
	PricePerHour   decimal.NullDecimal `gorm:"column:price_per_hour;type:numeric(12,2)"`
	PricePerDay    decimal.NullDecimal `gorm:"column:price_per_day;type:numeric(12,2)"`
	PricePerWeek   decimal.NullDecimal `gorm:"column:price_per_week;type:numeric(12,2)"`
	QuantityOnHand *int                `gorm:"column:quantity_on_hand"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
