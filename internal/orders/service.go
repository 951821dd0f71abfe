// Package orders owns rental orders after checkout: listings, detail and the status machine.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/pagination"
	"github.com/rentease/rentease-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationReleaser interface {
	ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error)
	List(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	// Transition moves an order to status. A non-nil tx joins the caller's transaction.
	Transition(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.RentalOrder, error)
	UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, status string) (*OrderDetail, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, input ListOrdersInput) (*OrderList, error)
	GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetail, error)
	ListManagedOrders(ctx context.Context, actor types.Actor, input ListOrdersInput) (*OrderList, error)
	GetManagedOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDetail, error)
	ReturnAlerts(ctx context.Context, actor types.Actor) ([]ReturnAlert, error)
	PendingReturnAlerts(ctx context.Context) ([]ReturnAlert, error)
}

// TransitionInput captures a status change request.
type TransitionInput struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	ActorUserID *uuid.UUID
	Reason      string
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Inventory   reservationReleaser
	Events      eventRecorder
	AlertWindow time.Duration
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	inventory   reservationReleaser
	events      eventRecorder
	alertWindow time.Duration
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("reservation releaser required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	window := params.AlertWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		inventory:   params.Inventory,
		events:      params.Events,
		alertWindow: window,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// Transition applies any-to-any status changes. Entering confirmed stamps confirmed_at once;
// entering cancelled or returned from a live state releases the order's reservations.
func (s *service) Transition(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.RentalOrder, error) {
	if tx != nil {
		return s.transition(ctx, tx, input)
	}
	var order *models.RentalOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.transition(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) transition(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.RentalOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}

	repo := s.repo.WithTx(tx)
	order, err := repo.LockByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	from := order.Status
	if from == input.Status {
		return order, nil
	}

	var confirmedAt *time.Time
	if input.Status == enums.OrderStatusConfirmed && order.ConfirmedAt == nil {
		now := s.now().UTC()
		confirmedAt = &now
		order.ConfirmedAt = &now
	}
	if err := repo.UpdateStatus(ctx, order.ID, input.Status, confirmedAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	order.Status = input.Status

	var released int64
	if input.Status.IsTerminal() && !from.IsTerminal() {
		released, err = s.inventory.ReleaseForOrder(ctx, tx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release reservations")
		}
	}

	metadata := map[string]any{
		"from": from.String(),
		"to":   input.Status.String(),
	}
	if released > 0 {
		metadata["released_reservations"] = released
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		metadata["reason"] = reason
	}
	if _, err := s.events.Record(ctx, tx, ledger.RecordEventInput{
		OrderID:     order.ID,
		ActorUserID: input.ActorUserID,
		Type:        enums.OrderEventTypeStatusChanged,
		Metadata:    metadata,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record status change")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"from": from.String(), "to": input.Status.String()})
	s.logg.Info(s.logg.WithOrderID(logCtx, order.ID.String()), "order status changed")
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, status string) (*OrderDetail, error) {
	target, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	if _, err := s.loadManaged(ctx, actor, orderID); err != nil {
		return nil, err
	}
	actorID := actor.UserID
	if _, err := s.Transition(ctx, nil, TransitionInput{
		OrderID:     orderID,
		Status:      target,
		ActorUserID: &actorID,
	}); err != nil {
		return nil, err
	}
	return s.GetManagedOrder(ctx, actor, orderID)
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, input ListOrdersInput) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}
	return s.list(ctx, ListQuery{CustomerID: &customerID, Pagination: input.Pagination}, input.Status)
}

func (s *service) GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.loadDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newDetail(*order, nil, s.now(), s.alertWindow), nil
}

func (s *service) ListManagedOrders(ctx context.Context, actor types.Actor, input ListOrdersInput) (*OrderList, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	return s.list(ctx, ListQuery{VendorID: actor.VendorScope(), Pagination: input.Pagination}, input.Status)
}

func (s *service) GetManagedOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDetail, error) {
	if _, err := s.loadManaged(ctx, actor, orderID); err != nil {
		return nil, err
	}
	order, err := s.loadDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order events")
	}
	return newDetail(*order, events, s.now(), s.alertWindow), nil
}

func (s *service) ReturnAlerts(ctx context.Context, actor types.Actor) ([]ReturnAlert, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	return s.alerts(ctx, actor.VendorScope())
}

func (s *service) PendingReturnAlerts(ctx context.Context) ([]ReturnAlert, error) {
	return s.alerts(ctx, nil)
}

func (s *service) alerts(ctx context.Context, vendorID *uuid.UUID) ([]ReturnAlert, error) {
	rows, err := s.repo.ListOut(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list outstanding orders")
	}
	now := s.now()
	alerts := make([]ReturnAlert, 0)
	for _, order := range rows {
		status := ReturnStatusOf(order, now, s.alertWindow)
		if status != enums.ReturnStatusOverdue && status != enums.ReturnStatusApproaching {
			continue
		}
		latest, _ := order.LatestReturnDate()
		alert := ReturnAlert{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			VendorID:    order.VendorID,
			CustomerID:  order.CustomerID,
			ReturnDate:  latest,
			Status:      status,
			HoursLeft:   int(latest.Sub(now).Hours()),
		}
		if order.Customer != nil {
			alert.CustomerName = order.Customer.FullName()
			alert.CustomerEmail = order.Customer.Email
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (s *service) list(ctx context.Context, query ListQuery, rawStatus string) (*OrderList, error) {
	if rawStatus = strings.TrimSpace(rawStatus); rawStatus != "" {
		status, err := enums.ParseOrderStatus(rawStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if _, err := pagination.ParseCursor(query.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.BuildPage(rows, query.Pagination.Limit, func(o models.RentalOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	now := s.now()
	out := make([]OrderSummary, 0, len(page.Items))
	for _, order := range page.Items {
		out = append(out, newSummary(order, now, s.alertWindow))
	}
	return &OrderList{Orders: out, NextCursor: page.NextCursor}, nil
}

func (s *service) loadManaged(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.RentalOrder, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
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

func (s *service) loadDetail(ctx context.Context, orderID uuid.UUID) (*models.RentalOrder, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
