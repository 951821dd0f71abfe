// Package fulfillment records the physical pickup and return of rental orders.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/types"
)

const day = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderTransitioner interface {
	Transition(ctx context.Context, tx *gorm.DB, input orders.TransitionInput) (*models.RentalOrder, error)
}

type feeApplier interface {
	ApplyFees(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lateFee decimal.Decimal) (*models.Invoice, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error)
}

type ratesProvider interface {
	Rates(ctx context.Context) (settings.Rates, error)
}

// Service records pickups and returns.
type Service interface {
	RecordPickup(ctx context.Context, actor types.Actor, orderID uuid.UUID, input PickupInput) (*PickupResult, error)
	RecordReturn(ctx context.Context, actor types.Actor, orderID uuid.UUID, input ReturnInput) (*ReturnResult, error)
}

// ServiceParams wires the fulfillment service.
type ServiceParams struct {
	Repo       Repository
	OrdersRepo orders.Repository
	Orders     orderTransitioner
	Invoices   feeApplier
	Events     eventRecorder
	Rates      ratesProvider
	Tx         txRunner
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	orders     orderTransitioner
	invoices   feeApplier
	events     eventRecorder
	rates      ratesProvider
	tx         txRunner
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the fulfillment service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("fulfillment repository required")
	case params.OrdersRepo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order transitioner required")
	case params.Invoices == nil:
		return nil, fmt.Errorf("fee applier required")
	case params.Events == nil:
		return nil, fmt.Errorf("event recorder required")
	case params.Rates == nil:
		return nil, fmt.Errorf("rates provider required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       params.Repo,
		ordersRepo: params.OrdersRepo,
		orders:     params.Orders,
		invoices:   params.Invoices,
		events:     params.Events,
		rates:      params.Rates,
		tx:         params.Tx,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// LateDays is the sum over lines of whole days elapsed past each line's end date.
func LateDays(lines []models.OrderLine, returnedAt time.Time) int64 {
	var total int64
	for _, line := range lines {
		if !returnedAt.After(line.EndDate) {
			continue
		}
		total += int64(returnedAt.Sub(line.EndDate) / day)
	}
	return total
}

// LateFee is LateDays × the daily rate, rounded to cents.
func LateFee(lines []models.OrderLine, returnedAt time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(LateDays(lines, returnedAt))).Round(2)
}

func (s *service) RecordPickup(ctx context.Context, actor types.Actor, orderID uuid.UUID, input PickupInput) (*PickupResult, error) {
	pickedBy := strings.TrimSpace(input.PickedBy)
	if pickedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picked_by is required")
	}
	pickupDate := s.now().UTC()
	if input.PickupDate != nil && !input.PickupDate.IsZero() {
		pickupDate = input.PickupDate.UTC()
	}

	var result *PickupResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, orderID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		exists, err := repo.PickupExists(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pickup")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "pickup already recorded for order")
		}

		actorID := actor.UserID
		pickup := &models.Pickup{
			OrderID:    orderID,
			PickupDate: pickupDate,
			PickedBy:   pickedBy,
			IDProof:    strings.TrimSpace(input.IDProof),
			Notes:      strings.TrimSpace(input.Notes),
			RecordedBy: &actorID,
		}
		if err := repo.CreatePickup(ctx, pickup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pickup")
		}

		order, err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			OrderID:     orderID,
			Status:      enums.OrderStatusPickedUp,
			ActorUserID: &actorID,
			Reason:      "pickup recorded",
		})
		if err != nil {
			return err
		}
		if _, err := s.events.Record(ctx, tx, ledger.RecordEventInput{
			OrderID:     orderID,
			ActorUserID: &actorID,
			Type:        enums.OrderEventTypePickupRecorded,
			Metadata: map[string]any{
				"picked_by":   pickup.PickedBy,
				"pickup_date": pickup.PickupDate.Format(time.RFC3339),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record pickup event")
		}

		result = &PickupResult{
			OrderID: orderID,
			Status:  order.Status,
			Pickup: orders.PickupDTO{
				PickupDate: pickup.PickupDate,
				PickedBy:   pickup.PickedBy,
				IDProof:    pickup.IDProof,
				Notes:      pickup.Notes,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "pickup recorded")
	return result, nil
}

// RecordReturn saves the return, moves the order to returned and charges late and damage
// fees on the invoice in one transaction.
func (s *service) RecordReturn(ctx context.Context, actor types.Actor, orderID uuid.UUID, input ReturnInput) (*ReturnResult, error) {
	returnedBy := strings.TrimSpace(input.ReturnedBy)
	if returnedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returned_by is required")
	}
	if input.DamageFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "damage_fee cannot be negative")
	}
	returnDate := s.now().UTC()
	if input.ReturnDate != nil && !input.ReturnDate.IsZero() {
		returnDate = input.ReturnDate.UTC()
	}
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var result *ReturnResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, orderID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		exists, err := repo.ReturnExists(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check return")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "return already recorded for order")
		}
		lines, err := repo.FindLines(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order lines")
		}

		lateDays := LateDays(lines, returnDate)
		lateFee := LateFee(lines, returnDate, rates.LateFeeDailyRate)
		damageFee := input.DamageFee.Round(2)
		actorID := actor.UserID
		record := &models.ReturnRecord{
			OrderID:        orderID,
			ReturnDate:     returnDate,
			ReturnedBy:     returnedBy,
			ConditionNotes: strings.TrimSpace(input.ConditionNotes),
			LateFee:        lateFee,
			DamageFee:      damageFee,
			RecordedBy:     &actorID,
		}
		if err := repo.CreateReturn(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create return")
		}

		order, err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			OrderID:     orderID,
			Status:      enums.OrderStatusReturned,
			ActorUserID: &actorID,
			Reason:      "return recorded",
		})
		if err != nil {
			return err
		}

		invoice, err := s.invoices.ApplyFees(ctx, tx, orderID, lateFee.Add(damageFee))
		if err != nil {
			return err
		}

		if _, err := s.events.Record(ctx, tx, ledger.RecordEventInput{
			OrderID:     orderID,
			ActorUserID: &actorID,
			Type:        enums.OrderEventTypeReturnRecorded,
			Metadata: map[string]any{
				"returned_by": record.ReturnedBy,
				"late_days":   lateDays,
				"late_fee":    lateFee.StringFixed(2),
				"damage_fee":  damageFee.StringFixed(2),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record return event")
		}

		result = &ReturnResult{
			OrderID: orderID,
			Status:  order.Status,
			Return: orders.ReturnDTO{
				ReturnDate:     record.ReturnDate,
				ReturnedBy:     record.ReturnedBy,
				ConditionNotes: record.ConditionNotes,
				LateFee:        record.LateFee,
				DamageFee:      record.DamageFee,
			},
			LateDays: lateDays,
		}
		if invoice != nil {
			id := invoice.ID
			total := invoice.TotalAmount
			result.InvoiceID = &id
			result.InvoiceStatus = invoice.Status
			result.InvoiceTotal = &total
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":   orderID.String(),
		"late_days":  result.LateDays,
		"late_fee":   result.Return.LateFee.StringFixed(2),
		"damage_fee": result.Return.DamageFee.StringFixed(2),
	}), "return recorded")
	return result, nil
}

func (s *service) lockManaged(ctx context.Context, tx *gorm.DB, actor types.Actor, orderID uuid.UUID) (*models.RentalOrder, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	order, err := s.ordersRepo.WithTx(tx).LockByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !actor.CanManage(order.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
	}
	return order, nil
}
