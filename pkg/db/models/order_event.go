package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// OrderEvent is an immutable audit entry for an order.
type OrderEvent struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	ActorUserID *uuid.UUID           `gorm:"column:actor_user_id;type:uuid"`
	Type        enums.OrderEventType `gorm:"column:type;type:text;not null"`
	Metadata    map[string]any       `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (e *OrderEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
