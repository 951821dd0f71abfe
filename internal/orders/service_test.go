package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/types"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *service
	vendor   uuid.UUID
	customer uuid.UUID
	product  *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testdb.Open(t)

	inv, err := inventory.NewService(inventory.NewRepository(conn))
	require.NoError(t, err)
	events, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Tx:          db.Wrap(conn),
		Inventory:   inv,
		Events:      events,
		AlertWindow: 24 * time.Hour,
	})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return now }

	vendor := &models.User{Email: "vendor@example.com", PasswordHash: "x", FirstName: "Vera", LastName: "Vendor", Role: enums.RoleVendor, IsActive: true}
	customer := &models.User{Email: "cust@example.com", PasswordHash: "x", FirstName: "Cal", LastName: "Customer", Role: enums.RoleCustomer, IsActive: true}
	require.NoError(t, conn.Create(vendor).Error)
	require.NoError(t, conn.Create(customer).Error)

	product := &models.Product{
		VendorID:       vendor.ID,
		Name:           "Tent",
		SalesPrice:     decimal.NewFromInt(9000),
		QuantityOnHand: 2,
		IsRentable:     true,
	}
	require.NoError(t, conn.Create(product).Error)

	return &fixture{db: conn, svc: impl, vendor: vendor.ID, customer: customer.ID, product: product}
}

// order creates an order with one reserved line ending at end.
func (f *fixture) order(t *testing.T, status enums.OrderStatus, end time.Time) *models.RentalOrder {
	t.Helper()
	order := &models.RentalOrder{
		OrderNumber: FormatNumber(OrderNumberPrefix, now) + uuid.NewString()[:4],
		CustomerID:  f.customer,
		VendorID:    f.vendor,
		Status:      status,
	}
	require.NoError(t, f.db.Create(order).Error)
	line := models.OrderLine{
		OrderID:   order.ID,
		ProductID: f.product.ID,
		Quantity:  1,
		StartDate: end.Add(-72 * time.Hour),
		EndDate:   end,
		UnitPrice: decimal.NewFromInt(1500),
	}
	require.NoError(t, f.db.Create(&line).Error)
	require.NoError(t, f.db.Create(&models.InventoryReservation{
		OrderID:     order.ID,
		OrderLineID: line.ID,
		ProductID:   f.product.ID,
		Quantity:    1,
		StartDate:   line.StartDate,
		EndDate:     line.EndDate,
		Status:      enums.ReservationStatusActive,
	}).Error)
	order.Lines = []models.OrderLine{line}
	return order
}

func (f *fixture) activeReservations(t *testing.T, orderID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.InventoryReservation{}).
		Where("order_id = ? AND status = ?", orderID, enums.ReservationStatusActive).
		Count(&count).Error)
	return count
}

func (f *fixture) vendorActor() types.Actor {
	return types.Actor{UserID: f.vendor, Role: enums.RoleVendor}
}

func TestFormatNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^RO20260510\d{4}$`)
	for range 50 {
		assert.Regexp(t, pattern, FormatNumber(OrderNumberPrefix, now))
	}
	assert.Regexp(t, regexp.MustCompile(`^INV20260510\d{4}$`), FormatNumber(InvoiceNumberPrefix, now))
}

func TestNextNumberSkipsTakenNumbers(t *testing.T) {
	calls := 0
	number, err := NextNumber(context.Background(), OrderNumberPrefix, now, func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, number, len("RO202605100000"))

	_, err = NextNumber(context.Background(), OrderNumberPrefix, now, func(context.Context, string) (bool, error) {
		return true, nil
	})
	require.Error(t, err)
}

func TestReturnStatusOf(t *testing.T) {
	mk := func(status enums.OrderStatus, end time.Time) models.RentalOrder {
		return models.RentalOrder{Status: status, Lines: []models.OrderLine{{EndDate: end.Add(-48 * time.Hour)}, {EndDate: end}}}
	}
	cases := []struct {
		name  string
		order models.RentalOrder
		want  enums.ReturnStatus
	}{
		{"returned", mk(enums.OrderStatusReturned, now.Add(-time.Hour)), enums.ReturnStatusReturned},
		{"overdue", mk(enums.OrderStatusRented, now.Add(-time.Hour)), enums.ReturnStatusOverdue},
		{"approaching", mk(enums.OrderStatusPickedUp, now.Add(12*time.Hour)), enums.ReturnStatusApproaching},
		{"window edge", mk(enums.OrderStatusRented, now.Add(24*time.Hour)), enums.ReturnStatusApproaching},
		{"normal", mk(enums.OrderStatusRented, now.Add(48*time.Hour)), enums.ReturnStatusNormal},
		{"not out", mk(enums.OrderStatusConfirmed, now.Add(-time.Hour)), enums.ReturnStatusNormal},
		{"no lines", models.RentalOrder{Status: enums.OrderStatusRented}, enums.ReturnStatusNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReturnStatusOf(tc.order, now, 24*time.Hour))
		})
	}
}

func TestTransitionStampsConfirmedAtOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, enums.OrderStatusPending, now.Add(96*time.Hour))

	updated, err := f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusConfirmed})
	require.NoError(t, err)
	require.NotNil(t, updated.ConfirmedAt)
	first := *updated.ConfirmedAt

	f.svc.now = func() time.Time { return now.Add(time.Hour) }
	_, err = f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusPending})
	require.NoError(t, err)
	updated, err = f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.True(t, first.Equal(*updated.ConfirmedAt))

	events, err := f.svc.events.List(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestTransitionReleasesReservationsOnlyFromLiveStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, enums.OrderStatusConfirmed, now.Add(96*time.Hour))
	require.EqualValues(t, 1, f.activeReservations(t, order.ID))

	_, err := f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.EqualValues(t, 0, f.activeReservations(t, order.ID))

	// Moving between terminal states and back is allowed for manual correction.
	_, err = f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusReturned})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, nil, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusRented})
	require.NoError(t, err)

	events, err := f.svc.events.List(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "confirmed", events[0].Metadata["from"])
	assert.Equal(t, "cancelled", events[0].Metadata["to"])
	assert.NotContains(t, events[1].Metadata, "released_reservations")
}

func TestTransitionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, nil, TransitionInput{OrderID: uuid.New(), Status: enums.OrderStatusRented})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Transition(ctx, nil, TransitionInput{OrderID: uuid.New(), Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateStatusIsScopedToVendor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, enums.OrderStatusPending, now.Add(96*time.Hour))

	stranger := types.Actor{UserID: uuid.New(), Role: enums.RoleVendor}
	_, err := f.svc.UpdateStatus(ctx, stranger, order.ID, "confirmed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	customer := types.Actor{UserID: f.customer, Role: enums.RoleCustomer}
	_, err = f.svc.UpdateStatus(ctx, customer, order.ID, "confirmed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, f.vendorActor(), order.ID, "bogus")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	detail, err := f.svc.UpdateStatus(ctx, f.vendorActor(), order.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, detail.Status)
	require.Len(t, detail.Events, 1)
	assert.Equal(t, enums.OrderEventTypeStatusChanged, detail.Events[0].Type)

	admin := types.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	detail, err = f.svc.UpdateStatus(ctx, admin, order.ID, "picked_up")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, detail.Status)
}

func TestListsAreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t, enums.OrderStatusPending, now.Add(96*time.Hour))
	f.order(t, enums.OrderStatusRented, now.Add(96*time.Hour))

	list, err := f.svc.ListCustomerOrders(ctx, f.customer, ListOrdersInput{})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 2)

	list, err = f.svc.ListCustomerOrders(ctx, uuid.New(), ListOrdersInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)

	list, err = f.svc.ListManagedOrders(ctx, f.vendorActor(), ListOrdersInput{Status: "rented"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, enums.OrderStatusRented, list.Orders[0].Status)
	assert.Equal(t, 1, list.Orders[0].ItemCount)
	assert.Equal(t, "1500.00", list.Orders[0].Subtotal.StringFixed(2))

	list, err = f.svc.ListManagedOrders(ctx, types.Actor{UserID: uuid.New(), Role: enums.RoleVendor}, ListOrdersInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)

	_, err = f.svc.ListManagedOrders(ctx, f.vendorActor(), ListOrdersInput{Status: "nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetCustomerOrderHidesOtherCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, enums.OrderStatusPending, now.Add(96*time.Hour))

	detail, err := f.svc.GetCustomerOrder(ctx, f.customer, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Tent", detail.Lines[0].ProductName)
	require.NotNil(t, detail.Vendor)
	assert.Equal(t, "vendor@example.com", detail.Vendor.Email)

	_, err = f.svc.GetCustomerOrder(ctx, uuid.New(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReturnAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	overdue := f.order(t, enums.OrderStatusRented, now.Add(-5*time.Hour))
	approaching := f.order(t, enums.OrderStatusPickedUp, now.Add(10*time.Hour))
	f.order(t, enums.OrderStatusRented, now.Add(72*time.Hour))
	f.order(t, enums.OrderStatusConfirmed, now.Add(-5*time.Hour))

	alerts, err := f.svc.ReturnAlerts(ctx, f.vendorActor())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byOrder := map[uuid.UUID]ReturnAlert{}
	for _, alert := range alerts {
		byOrder[alert.OrderID] = alert
	}
	assert.Equal(t, enums.ReturnStatusOverdue, byOrder[overdue.ID].Status)
	assert.Equal(t, -5, byOrder[overdue.ID].HoursLeft)
	assert.Equal(t, enums.ReturnStatusApproaching, byOrder[approaching.ID].Status)
	assert.Equal(t, "cust@example.com", byOrder[approaching.ID].CustomerEmail)

	_, err = f.svc.ReturnAlerts(ctx, types.Actor{UserID: f.customer, Role: enums.RoleCustomer})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	pending, err := f.svc.PendingReturnAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
