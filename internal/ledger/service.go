// Package ledger keeps the append-only audit trail of order events.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// Service defines operations that record order events.
type Service interface {
	// Record appends an event. A non-nil tx binds the write to the caller's transaction.
	Record(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.OrderEvent, error)
	List(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
}

type service struct {
	repo Repository
}

// RecordEventInput captures the immutable data an order event requires.
type RecordEventInput struct {
	OrderID     uuid.UUID            `json:"order_id"`
	ActorUserID *uuid.UUID           `json:"actor_user_id,omitempty"`
	Type        enums.OrderEventType `json:"type"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.OrderEvent, error) {
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid order event type %q", input.Type)
	}
	if input.ActorUserID != nil && *input.ActorUserID == uuid.Nil {
		input.ActorUserID = nil
	}

	event := &models.OrderEvent{
		OrderID:     input.OrderID,
		ActorUserID: input.ActorUserID,
		Type:        input.Type,
		Metadata:    input.Metadata,
	}
	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) List(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}
