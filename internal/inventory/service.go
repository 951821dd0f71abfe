// Package inventory computes windowed availability and holds stock through reservations.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

// Window is a half-open rental interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// ReserveRequest asks for stock for one order line.
type ReserveRequest struct {
	OrderID     uuid.UUID
	OrderLineID uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	Quantity    int
	Window      Window
}

// Service exposes availability and reservation operations. Methods taking a tx run inside
// the caller's transaction; a nil tx uses the base connection.
type Service interface {
	AvailableQuantity(ctx context.Context, tx *gorm.DB, product *models.Product, variant *models.ProductVariant, window *Window) (int, error)
	Reserve(ctx context.Context, tx *gorm.DB, requests []ReserveRequest) ([]models.InventoryReservation, error)
	ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the inventory service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// AvailableQuantity returns on-hand stock without a window. With a window it subtracts
// active overlapping reservations, floored at zero. A variant with its own stock is
// counted independently of its parent.
func (s *service) AvailableQuantity(ctx context.Context, tx *gorm.DB, product *models.Product, variant *models.ProductVariant, window *Window) (int, error) {
	if product == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	repo := s.repo.WithTx(tx)

	onHand := product.QuantityOnHand
	ownStock := variant != nil && variant.QuantityOnHand != nil
	if ownStock {
		onHand = *variant.QuantityOnHand
	}
	if window == nil {
		return max(onHand, 0), nil
	}
	if !window.Valid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}

	var (
		reserved int
		err      error
	)
	if ownStock {
		reserved, err = repo.ReservedVariantQuantity(ctx, variant.ID, window.Start, window.End)
	} else {
		reserved, err = repo.ReservedProductQuantity(ctx, product.ID, window.Start, window.End)
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum reservations")
	}
	return max(onHand-reserved, 0), nil
}

// Reserve locks each product row, re-checks availability and records active reservations.
// Requests are processed in order so earlier lines in the batch count against later ones.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, requests []ReserveRequest) ([]models.InventoryReservation, error) {
	repo := s.repo.WithTx(tx)
	locked := map[uuid.UUID]*models.Product{}
	created := make([]models.InventoryReservation, 0, len(requests))

	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if !req.Window.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
		}

		product, ok := locked[req.ProductID]
		if !ok {
			var err error
			product, err = repo.LockProduct(ctx, req.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock product")
			}
			locked[req.ProductID] = product
		}

		var variant *models.ProductVariant
		if req.VariantID != nil {
			found, err := repo.FindVariant(ctx, req.ProductID, *req.VariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
			}
			variant = found
		}

		window := req.Window
		available, err := s.AvailableQuantity(ctx, tx, product, variant, &window)
		if err != nil {
			return nil, err
		}
		if req.Quantity > available {
			return nil, pkgerrors.Newf(pkgerrors.CodeUnavailable,
				"only %d of %s available for the selected dates", available, product.Name).
				WithDetails(map[string]any{"product_id": product.ID, "available": available})
		}

		row := models.InventoryReservation{
			OrderID:     req.OrderID,
			OrderLineID: req.OrderLineID,
			ProductID:   req.ProductID,
			VariantID:   req.VariantID,
			Quantity:    req.Quantity,
			StartDate:   req.Window.Start,
			EndDate:     req.Window.End,
		}
		rows := []models.InventoryReservation{row}
		if err := repo.Create(ctx, rows); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reservation")
		}
		created = append(created, rows[0])
	}
	return created, nil
}

func (s *service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	released, err := s.repo.WithTx(tx).ReleaseByOrder(ctx, orderID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release reservations")
	}
	return released, nil
}
