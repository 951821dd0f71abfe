package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.Add(time.Duration(n) * 24 * time.Hour)
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	product *models.Product
	orderID uuid.UUID
}

func newFixture(t *testing.T, onHand int) *fixture {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	product := &models.Product{
		VendorID:       uuid.New(),
		Name:           "Camera",
		SalesPrice:     decimal.NewFromInt(5000),
		QuantityOnHand: onHand,
		IsRentable:     true,
	}
	require.NoError(t, conn.Create(product).Error)

	order := &models.RentalOrder{
		OrderNumber: "RO202603010001",
		CustomerID:  uuid.New(),
		VendorID:    product.VendorID,
		Status:      enums.OrderStatusPending,
	}
	require.NoError(t, conn.Create(order).Error)
	return &fixture{db: conn, svc: svc, product: product, orderID: order.ID}
}

func (f *fixture) reserve(t *testing.T, qty int, start, end time.Time) error {
	t.Helper()
	return f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Reserve(context.Background(), tx, []ReserveRequest{{
			OrderID:     f.orderID,
			OrderLineID: uuid.New(),
			ProductID:   f.product.ID,
			Quantity:    qty,
			Window:      Window{Start: start, End: end},
		}})
		return err
	})
}

func TestAvailableQuantityWithoutWindowIsOnHand(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.reserve(t, 2, day(0), day(2)))

	qty, err := f.svc.AvailableQuantity(context.Background(), nil, f.product, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestAvailableQuantitySubtractsOverlappingReservations(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.reserve(t, 2, day(0), day(4)))

	cases := []struct {
		name   string
		window Window
		want   int
	}{
		{"overlapping", Window{day(2), day(6)}, 1},
		{"adjacent after", Window{day(4), day(6)}, 3},
		{"adjacent before", Window{day(-2), day(0)}, 3},
		{"contained", Window{day(1), day(2)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			window := tc.window
			qty, err := f.svc.AvailableQuantity(ctx, nil, f.product, nil, &window)
			require.NoError(t, err)
			assert.Equal(t, tc.want, qty)
		})
	}
}

func TestReserveRejectsOverbooking(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.reserve(t, 2, day(0), day(3)))

	err := f.reserve(t, 1, day(1), day(2))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnavailable))

	require.NoError(t, f.reserve(t, 1, day(3), day(5)))
}

func TestReserveCountsEarlierRequestsInBatch(t *testing.T) {
	f := newFixture(t, 3)
	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Reserve(context.Background(), tx, []ReserveRequest{
			{OrderID: f.orderID, OrderLineID: uuid.New(), ProductID: f.product.ID, Quantity: 2, Window: Window{day(0), day(2)}},
			{OrderID: f.orderID, OrderLineID: uuid.New(), ProductID: f.product.ID, Quantity: 2, Window: Window{day(1), day(3)}},
		})
		return err
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.InventoryReservation{}).Count(&count).Error)
	assert.Zero(t, count, "failed batch must roll back")
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t, 3)
	err := f.reserve(t, 0, day(0), day(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.reserve(t, 1, day(1), day(1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReleaseForOrderFreesStock(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	require.NoError(t, f.reserve(t, 1, day(0), day(2)))

	released, err := f.svc.ReleaseForOrder(ctx, nil, f.orderID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)

	again, err := f.svc.ReleaseForOrder(ctx, nil, f.orderID)
	require.NoError(t, err)
	assert.Zero(t, again)

	window := Window{day(0), day(2)}
	qty, err := f.svc.AvailableQuantity(ctx, nil, f.product, nil, &window)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.product.ID).Error)
	assert.Equal(t, 1, product.QuantityOnHand, "on-hand stock is never decremented")
}

func TestVariantWithOwnStockIsCountedSeparately(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	stock := 2
	variant := &models.ProductVariant{ProductID: f.product.ID, Name: "Large", QuantityOnHand: &stock}
	require.NoError(t, f.db.Create(variant).Error)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Reserve(ctx, tx, []ReserveRequest{{
			OrderID:     f.orderID,
			OrderLineID: uuid.New(),
			ProductID:   f.product.ID,
			VariantID:   &variant.ID,
			Quantity:    2,
			Window:      Window{day(0), day(2)},
		}})
		return err
	})
	require.NoError(t, err)

	window := Window{day(0), day(2)}
	parentQty, err := f.svc.AvailableQuantity(ctx, nil, f.product, nil, &window)
	require.NoError(t, err)
	assert.Equal(t, 1, parentQty)

	variantQty, err := f.svc.AvailableQuantity(ctx, nil, f.product, variant, &window)
	require.NoError(t, err)
	assert.Zero(t, variantQty)
}
