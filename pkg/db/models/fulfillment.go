package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pickup records the physical handover of an order. One per order.
type Pickup struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PickupDate time.Time  `gorm:"column:pickup_date;not null"`
	PickedBy   string     `gorm:"column:picked_by;not null"`
	IDProof    string     `gorm:"column:id_proof;not null;default:''"`
	Notes      string     `gorm:"column:notes;not null;default:''"`
	RecordedBy *uuid.UUID `gorm:"column:recorded_by;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (p *Pickup) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ReturnRecord records goods coming back, with the fees assessed at that point. One per order.
type ReturnRecord struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	ReturnDate     time.Time       `gorm:"column:return_date;not null"`
	ReturnedBy     string          `gorm:"column:returned_by;not null"`
	ConditionNotes string          `gorm:"column:condition_notes;not null;default:''"`
	LateFee        decimal.Decimal `gorm:"column:late_fee;type:numeric(12,2);not null;default:0"`
	DamageFee      decimal.Decimal `gorm:"column:damage_fee;type:numeric(12,2);not null;default:0"`
	RecordedBy     *uuid.UUID      `gorm:"column:recorded_by;type:uuid"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ReturnRecord) TableName() string { return "rental_returns" }

func (r *ReturnRecord) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
