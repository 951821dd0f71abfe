package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/internal/cart"
	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	product "github.com/rentease/rentease-backend/internal/products"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/internal/users"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/metrics"
)

var start = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      Service
	cart     cart.Service
	registry *prometheus.Registry
	camera   *models.Product
	tripod   *models.Product
	customer *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testdb.Open(t)
	client := db.Wrap(conn)

	inv, err := inventory.NewService(inventory.NewRepository(conn))
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.NewRepository(conn))
	require.NoError(t, err)
	events, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	rental := config.RentalConfig{
		TaxRate:         decimal.NewFromInt(18),
		SecurityDeposit: decimal.NewFromInt(1000),
		InvoiceDueDays:  7,
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

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:      cart.NewRepository(conn),
		Products:  product.NewRepository(conn),
		Inventory: inv,
		Coupons:   couponSvc,
		Rates:     rates,
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Tx:          client,
		CartRepo:    cart.NewRepository(conn),
		OrdersRepo:  orders.NewRepository(conn),
		Profiles:    users.NewRepository(conn),
		Reservation: inv,
		Coupons:     couponSvc,
		Invoices:    invoices,
		Events:      events,
		Rates:       rates,
		Metrics:     metrics.NewCheckoutMetrics(registry),
	})
	require.NoError(t, err)

	customer := &models.User{
		Email:        "cust@example.com",
		PasswordHash: "x",
		FirstName:    "Cal",
		LastName:     "Customer",
		Role:         enums.RoleCustomer,
		Address:      "12 MG Road",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(customer).Error)

	camera := newProduct(t, conn, uuid.New(), "Camera", 7000, 1)
	tripod := newProduct(t, conn, uuid.New(), "Tripod", 3000, 4)

	return &fixture{
		db:       conn,
		svc:      svc,
		cart:     cartSvc,
		registry: registry,
		camera:   camera,
		tripod:   tripod,
		customer: customer,
	}
}

func newProduct(t *testing.T, conn *gorm.DB, vendorID uuid.UUID, name string, perDay int64, onHand int) *models.Product {
	t.Helper()
	item := &models.Product{
		VendorID:         vendorID,
		Name:             name,
		SalesPrice:       decimal.NewFromInt(perDay * 10),
		PricePerDay:      decimal.NewNullDecimal(decimal.NewFromInt(perDay)),
		QuantityOnHand:   onHand,
		IsRentable:       true,
		PublishOnWebsite: true,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func (f *fixture) addLine(t *testing.T, customerID uuid.UUID, item *models.Product) {
	t.Helper()
	_, err := f.cart.AddLine(context.Background(), customerID, cart.AddLineInput{
		ProductID: item.ID,
		Quantity:  1,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
	})
	require.NoError(t, err)
}

func (f *fixture) attempts(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "rentease_checkout_attempts_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestExecuteEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(context.Background(), f.customer.ID, CheckoutInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, float64(1), f.attempts(t, metrics.CheckoutOutcomeEmptyCart))

	var count int64
	require.NoError(t, f.db.Model(&models.RentalOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestExecuteSplitsByVendorAndAllocates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&models.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: decimal.NewFromInt(10),
		IsActive:           true,
		ValidFrom:          start.Add(-30 * 24 * time.Hour),
	}).Error)

	f.addLine(t, f.customer.ID, f.camera)
	f.addLine(t, f.customer.ID, f.tripod)
	code := "save10"

	result, err := f.svc.Execute(ctx, f.customer.ID, CheckoutInput{CouponCode: &code, Notes: "ring the bell"})
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)

	first, second := result.Orders[0], result.Orders[1]
	assert.Equal(t, f.camera.VendorID, first.VendorID)
	assert.Equal(t, f.tripod.VendorID, second.VendorID)
	assert.Regexp(t, `^RO\d{12}$`, first.OrderNumber)
	assert.Regexp(t, `^INV\d{12}$`, first.InvoiceNumber)

	assert.Equal(t, "700.00", first.Discount.StringFixed(2))
	assert.Equal(t, "300.00", second.Discount.StringFixed(2))
	assert.Equal(t, "700.00", first.SecurityDeposit.StringFixed(2))
	assert.Equal(t, "300.00", second.SecurityDeposit.StringFixed(2))
	assert.Equal(t, "1134.00", first.Tax.StringFixed(2))
	assert.Equal(t, "486.00", second.Tax.StringFixed(2))
	assert.Equal(t, "8134.00", first.Total.StringFixed(2))
	assert.Equal(t, "3486.00", second.Total.StringFixed(2))
	assert.Equal(t, "11620.00", result.GrandTotal.StringFixed(2))
	require.NotNil(t, result.CouponCode)
	assert.Equal(t, "SAVE10", *result.CouponCode)

	var order models.RentalOrder
	require.NoError(t, f.db.First(&order, "id = ?", first.OrderID).Error)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "12 MG Road", order.DeliveryAddress)
	assert.Equal(t, "411001", order.DeliveryPincode)
	require.NotNil(t, order.Notes)
	assert.Equal(t, "ring the bell", *order.Notes)

	var quotation models.Quotation
	require.NoError(t, f.db.First(&quotation, "id = ?", result.QuotationID).Error)
	assert.Equal(t, enums.QuotationStatusConfirmed, quotation.Status)
	require.NotNil(t, quotation.OrderID)
	assert.Equal(t, first.OrderID, *quotation.OrderID)

	var reservations int64
	require.NoError(t, f.db.Model(&models.InventoryReservation{}).Count(&reservations).Error)
	assert.EqualValues(t, 2, reservations)

	var usage int64
	require.NoError(t, f.db.Model(&models.CouponUsage{}).Where("order_id = ?", first.OrderID).Count(&usage).Error)
	assert.EqualValues(t, 1, usage)

	var created int64
	require.NoError(t, f.db.Model(&models.OrderEvent{}).Where("type = ?", enums.OrderEventTypeCreated).Count(&created).Error)
	assert.EqualValues(t, 2, created)

	assert.Equal(t, float64(1), f.attempts(t, metrics.CheckoutOutcomeSuccess))

	fresh, err := f.cart.Summary(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.NotEqual(t, result.QuotationID, fresh.ID)
	assert.Empty(t, fresh.Lines)
}

func TestExecuteDropsInvalidCoupon(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, f.customer.ID, f.tripod)
	code := "MISSING"

	result, err := f.svc.Execute(context.Background(), f.customer.ID, CheckoutInput{CouponCode: &code})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Nil(t, result.CouponCode)
	assert.True(t, result.Discount.IsZero())
	assert.Equal(t, "4540.00", result.GrandTotal.StringFixed(2))
}

func TestExecuteRollsBackWhenStockIsGone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rival := &models.User{Email: "rival@example.com", PasswordHash: "x", FirstName: "Ria", LastName: "Rival", Role: enums.RoleCustomer, IsActive: true}
	require.NoError(t, f.db.Create(rival).Error)

	f.addLine(t, rival.ID, f.camera)
	f.addLine(t, f.customer.ID, f.tripod)
	f.addLine(t, f.customer.ID, f.camera)

	_, err := f.svc.Execute(ctx, rival.ID, CheckoutInput{})
	require.NoError(t, err)

	_, err = f.svc.Execute(ctx, f.customer.ID, CheckoutInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnavailable))
	assert.Equal(t, float64(1), f.attempts(t, metrics.CheckoutOutcomeUnavailable))

	var orderCount int64
	require.NoError(t, f.db.Model(&models.RentalOrder{}).Where("customer_id = ?", f.customer.ID).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var invoices int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&invoices).Error)
	assert.EqualValues(t, 1, invoices)

	summary, err := f.cart.Summary(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Lines, 2)
}

func TestGroupByVendorKeepsFirstAppearanceOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lines := []models.QuotationLine{
		{Product: &models.Product{VendorID: b}, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		{Product: &models.Product{VendorID: a}, Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
		{Product: &models.Product{VendorID: b}, Quantity: 3, UnitPrice: decimal.NewFromInt(1)},
	}

	groups := groupByVendor(lines)
	require.Len(t, groups, 2)
	assert.Equal(t, b, groups[0].vendorID)
	assert.Len(t, groups[0].lines, 2)
	assert.Equal(t, "13", groups[0].subtotal.String())
	assert.Equal(t, a, groups[1].vendorID)
	assert.Equal(t, "10", groups[1].subtotal.String())
}

func TestParseChoices(t *testing.T) {
	method, term, err := parseChoices(CheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryMethodHomeDelivery, method)
	assert.Equal(t, enums.PaymentTermFullUpfront, term)

	method, _, err = parseChoices(CheckoutInput{DeliveryMethod: "pickup"})
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryMethodPickup, method)

	_, _, err = parseChoices(CheckoutInput{DeliveryMethod: "drone"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
