package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coupon is a percentage discount code. MaxUses of zero means unlimited.
type Coupon struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string          `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:10"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	MaxUses            int             `gorm:"column:max_uses;not null;default:0"`
	TimesUsed          int             `gorm:"column:times_used;not null;default:0"`
	ValidFrom          time.Time       `gorm:"column:valid_from;not null"`
	ValidUntil         *time.Time      `gorm:"column:valid_until"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CouponUsage records that a user consumed a coupon. (coupon_id, user_id) is unique.
type CouponUsage struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID       uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	OrderID        *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	UsedAt         time.Time       `gorm:"column:used_at;autoCreateTime"`
}

func (u *CouponUsage) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
