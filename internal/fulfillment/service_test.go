package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/types"
)

var now = time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      Service
	invoices *billing.Service
	vendor   *models.User
	order    *models.RentalOrder
	lines    []models.OrderLine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testdb.Open(t)
	client := db.Wrap(conn)

	inv, err := inventory.NewService(inventory.NewRepository(conn))
	require.NoError(t, err)
	events, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	rental := config.RentalConfig{
		TaxRate:          decimal.NewFromInt(18),
		SecurityDeposit:  decimal.NewFromInt(1000),
		LateFeeDailyRate: decimal.NewFromInt(100),
		InvoiceDueDays:   7,
	}
	rates, err := settings.NewService(settings.NewRepository(conn), rental)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Tx:        client,
		Inventory: inv,
		Events:    events,
	})
	require.NoError(t, err)
	invoices, err := billing.NewService(billing.ServiceParams{
		Repo:   billing.NewRepository(conn),
		Tx:     client,
		Orders: orderSvc,
		Events: events,
		Rates:  rates,
		Mailer: notifications.NewMailer(config.SendgridConfig{}, nil),
		Rental: rental,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		OrdersRepo: orders.NewRepository(conn),
		Orders:     orderSvc,
		Invoices:   invoices,
		Events:     events,
		Rates:      rates,
		Tx:         client,
	})
	require.NoError(t, err)

	vendor := &models.User{Email: "vendor@example.com", PasswordHash: "x", FirstName: "Vera", LastName: "Vendor", Role: enums.RoleVendor, IsActive: true}
	customer := &models.User{Email: "cust@example.com", PasswordHash: "x", FirstName: "Cal", LastName: "Customer", Role: enums.RoleCustomer, IsActive: true}
	require.NoError(t, conn.Create(vendor).Error)
	require.NoError(t, conn.Create(customer).Error)
	camera := &models.Product{VendorID: vendor.ID, Name: "Camera", SalesPrice: decimal.NewFromInt(5000), QuantityOnHand: 3, IsRentable: true}
	lens := &models.Product{VendorID: vendor.ID, Name: "Lens", SalesPrice: decimal.NewFromInt(2000), QuantityOnHand: 3, IsRentable: true}
	require.NoError(t, conn.Create(camera).Error)
	require.NoError(t, conn.Create(lens).Error)

	order := &models.RentalOrder{
		OrderNumber: "RO202608031234",
		CustomerID:  customer.ID,
		VendorID:    vendor.ID,
		Status:      enums.OrderStatusConfirmed,
	}
	require.NoError(t, conn.Create(order).Error)
	lines := []models.OrderLine{
		{ID: uuid.New(), OrderID: order.ID, ProductID: camera.ID, Quantity: 2, StartDate: now, EndDate: now.Add(72 * time.Hour), UnitPrice: decimal.NewFromInt(4500)},
		{ID: uuid.New(), OrderID: order.ID, ProductID: lens.ID, Quantity: 1, StartDate: now, EndDate: now.Add(48 * time.Hour), UnitPrice: decimal.NewFromInt(1000)},
	}
	require.NoError(t, conn.Create(&lines).Error)

	requests := make([]inventory.ReserveRequest, len(lines))
	for i, line := range lines {
		requests[i] = inventory.ReserveRequest{
			OrderID:     order.ID,
			OrderLineID: line.ID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Window:      inventory.Window{Start: line.StartDate, End: line.EndDate},
		}
	}
	_, err = inv.Reserve(context.Background(), conn, requests)
	require.NoError(t, err)

	return &fixture{db: conn, svc: svc, invoices: invoices, vendor: vendor, order: order, lines: lines}
}

func (f *fixture) staff() types.Actor {
	return types.Actor{UserID: f.vendor.ID, Role: enums.RoleVendor}
}

func TestLateDays(t *testing.T) {
	lines := []models.OrderLine{
		{EndDate: now},
		{EndDate: now.Add(24 * time.Hour)},
	}

	assert.EqualValues(t, 0, LateDays(lines, now))
	assert.EqualValues(t, 0, LateDays(lines, now.Add(23*time.Hour)))
	assert.EqualValues(t, 1, LateDays(lines, now.Add(25*time.Hour)))
	assert.EqualValues(t, 3, LateDays(lines, now.Add(50*time.Hour)))
	assert.Equal(t, "300.00", LateFee(lines, now.Add(50*time.Hour), decimal.NewFromInt(100)).StringFixed(2))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestRecordPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.RecordPickup(ctx, f.staff(), f.order.ID, PickupInput{PickedBy: "Cal", IDProof: "DL-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, result.Status)
	assert.Equal(t, "Cal", result.Pickup.PickedBy)

	var events int64
	require.NoError(t, f.db.Model(&models.OrderEvent{}).Where("order_id = ? AND type = ?", f.order.ID, enums.OrderEventTypePickupRecorded).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	_, err = f.svc.RecordPickup(ctx, f.staff(), f.order.ID, PickupInput{PickedBy: "Cal"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRecordPickupScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordPickup(ctx, types.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}, f.order.ID, PickupInput{PickedBy: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.RecordPickup(ctx, types.Actor{UserID: uuid.New(), Role: enums.RoleVendor}, f.order.ID, PickupInput{PickedBy: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.RecordPickup(ctx, f.staff(), uuid.New(), PickupInput{PickedBy: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.RecordPickup(ctx, f.staff(), f.order.ID, PickupInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecordReturnChargesFeesAndReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.invoices.EnsureInvoice(ctx, f.staff(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "12800.00", invoice.TotalAmount.StringFixed(2))

	returnedAt := now.Add(72*time.Hour + 49*time.Hour)
	result, err := f.svc.RecordReturn(ctx, f.staff(), f.order.ID, ReturnInput{
		ReturnDate:     &returnedAt,
		ReturnedBy:     "Cal",
		ConditionNotes: "scratched lens cap",
		DamageFee:      decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusReturned, result.Status)
	assert.EqualValues(t, 5, result.LateDays)
	assert.Equal(t, "500.00", result.Return.LateFee.StringFixed(2))
	assert.Equal(t, "250.00", result.Return.DamageFee.StringFixed(2))
	require.NotNil(t, result.InvoiceTotal)
	assert.Equal(t, "13550.00", result.InvoiceTotal.StringFixed(2))

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "order_id = ?", f.order.ID).Error)
	assert.Equal(t, "750.00", stored.LateFee.StringFixed(2))

	var active int64
	require.NoError(t, f.db.Model(&models.InventoryReservation{}).
		Where("order_id = ? AND status = ?", f.order.ID, enums.ReservationStatusActive).
		Count(&active).Error)
	assert.Zero(t, active)

	_, err = f.svc.RecordReturn(ctx, f.staff(), f.order.ID, ReturnInput{ReturnedBy: "Cal"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRecordReturnWithoutInvoice(t *testing.T) {
	f := newFixture(t)

	returnedAt := now.Add(time.Hour)
	result, err := f.svc.RecordReturn(context.Background(), f.staff(), f.order.ID, ReturnInput{ReturnDate: &returnedAt, ReturnedBy: "Cal"})
	require.NoError(t, err)
	assert.True(t, result.Return.LateFee.IsZero())
	assert.Nil(t, result.InvoiceID)
	assert.Nil(t, result.InvoiceTotal)
}

func TestRecordReturnRejectsNegativeDamage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordReturn(context.Background(), f.staff(), f.order.ID, ReturnInput{ReturnedBy: "Cal", DamageFee: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
