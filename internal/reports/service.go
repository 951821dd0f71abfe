// Package reports builds the vendor and admin dashboard.
package reports

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/types"
)

const (
	topProductsLimit  = 5
	lowStockLimit     = 10
	recentOrdersLimit = 10
)

// statuses whose lines count towards the most-rented ranking
var rentedStatuses = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusPickedUp,
	enums.OrderStatusRented,
	enums.OrderStatusReturned,
}

// Service exposes the dashboard.
type Service interface {
	Dashboard(ctx context.Context, actor types.Actor) (*Dashboard, error)
}

type service struct {
	repo              Repository
	lowStockThreshold int
}

// NewService builds the reports service.
func NewService(repo Repository, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &service{repo: repo, lowStockThreshold: lowStockThreshold}, nil
}

func (s *service) Dashboard(ctx context.Context, actor types.Actor) (*Dashboard, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	scope := actor.VendorScope()
	dashboard := &Dashboard{Scope: "vendor", LowStockThreshold: s.lowStockThreshold}
	if scope == nil {
		dashboard.Scope = "all"
	}

	var err error
	if dashboard.TotalProducts, err = s.repo.CountProducts(ctx, scope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	if dashboard.TotalOrders, err = s.repo.CountOrders(ctx, scope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	if dashboard.ActiveRentals, err = s.repo.CountOrders(ctx, scope, enums.OrderStatusPickedUp, enums.OrderStatusRented); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count active rentals")
	}

	paid, err := s.repo.InvoiceAmounts(ctx, scope, "amount_paid")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	dashboard.Revenue = sum(paid)
	pending, err := s.repo.InvoiceAmounts(ctx, scope, "total_amount", enums.InvoiceStatusDraft, enums.InvoiceStatusSent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum pending revenue")
	}
	dashboard.PendingRevenue = sum(pending)

	if dashboard.MostRented, err = s.repo.MostRented(ctx, scope, rentedStatuses, topProductsLimit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank products")
	}
	if dashboard.LowStock, err = s.repo.LowStock(ctx, scope, s.lowStockThreshold, lowStockLimit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	if dashboard.RecentOrders, err = s.repo.RecentOrders(ctx, scope, recentOrdersLimit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent orders")
	}
	return dashboard, nil
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total.Round(2)
}
