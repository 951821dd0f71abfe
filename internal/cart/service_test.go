package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/inventory"
	product "github.com/rentease/rentease-backend/internal/products"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

var start = time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      Service
	product  *models.Product
	customer uuid.UUID
}

func newFixture(t *testing.T, onHand int) *fixture {
	t.Helper()
	conn := testdb.Open(t)

	inv, err := inventory.NewService(inventory.NewRepository(conn))
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.NewRepository(conn))
	require.NoError(t, err)
	rates, err := settings.NewService(settings.NewRepository(conn), config.RentalConfig{
		TaxRate:         decimal.NewFromInt(18),
		SecurityDeposit: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Products:  product.NewRepository(conn),
		Inventory: inv,
		Coupons:   couponSvc,
		Rates:     rates,
	})
	require.NoError(t, err)

	item := &models.Product{
		VendorID:         uuid.New(),
		Name:             "Projector",
		SalesPrice:       decimal.NewFromInt(50000),
		PricePerDay:      decimal.NewNullDecimal(decimal.NewFromInt(3000)),
		QuantityOnHand:   onHand,
		IsRentable:       true,
		PublishOnWebsite: true,
	}
	require.NoError(t, conn.Create(item).Error)
	return &fixture{db: conn, svc: svc, product: item, customer: uuid.New()}
}

func (f *fixture) add(qty int, from time.Time, days int) (*Summary, error) {
	return f.svc.AddLine(context.Background(), f.customer, AddLineInput{
		ProductID: f.product.ID,
		Quantity:  qty,
		StartDate: from,
		EndDate:   from.Add(time.Duration(days) * 24 * time.Hour),
	})
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestGetOrCreateDraftIsStable(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	first, err := f.svc.GetOrCreateDraft(ctx, f.customer)
	require.NoError(t, err)
	second, err := f.svc.GetOrCreateDraft(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.Quotation{}).Where("customer_id = ?", f.customer).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddLinePricesAndTotals(t *testing.T) {
	f := newFixture(t, 5)

	summary, err := f.add(2, start, 3)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)

	line := summary.Lines[0]
	assert.Equal(t, "Projector", line.ProductName)
	assert.Equal(t, "9000.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "18000.00", line.Total.StringFixed(2))
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, "18000.00", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "3240.00", summary.Tax.StringFixed(2))
	assert.Equal(t, "1000.00", summary.SecurityDeposit.StringFixed(2))
	assert.Equal(t, "22240.00", summary.GrandTotal.StringFixed(2))
}

func TestAddLineValidation(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.add(1, start, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.add(0, start, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.db.Model(f.product).Update("publish_on_website", false).Error)
	_, err = f.add(1, start, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddLine(context.Background(), f.customer, AddLineInput{
		ProductID: uuid.New(),
		Quantity:  1,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddLineCountsOverlappingCartLines(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.add(2, start, 3)
	require.NoError(t, err)

	_, err = f.add(2, start.Add(24*time.Hour), 3)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnavailable))

	summary, err := f.add(3, start.Add(3*24*time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, summary.Lines, 2)
}

func TestRemoveLine(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	summary, err := f.add(1, start, 1)
	require.NoError(t, err)

	_, err = f.svc.RemoveLine(ctx, f.customer, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	summary, err = f.svc.RemoveLine(ctx, f.customer, summary.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.True(t, summary.GrandTotal.IsZero())
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&models.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: decimal.NewFromInt(10),
		IsActive:           true,
		ValidFrom:          start.Add(-30 * 24 * time.Hour),
	}).Error)
	_, err := f.add(2, start, 3)
	require.NoError(t, err)

	_, err = f.svc.ApplyCoupon(ctx, f.customer, "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid coupon code", pkgerrors.As(err).Message())

	result, err := f.svc.ApplyCoupon(ctx, f.customer, " save10 ")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.CouponCode)
	assert.Equal(t, "SAVE10", *result.CouponCode)
	assert.Equal(t, "1800.00", result.Summary.Discount.StringFixed(2))
	assert.Equal(t, "2916.00", result.Summary.Tax.StringFixed(2))
	assert.Equal(t, "20116.00", result.Summary.GrandTotal.StringFixed(2))

	result, err = f.svc.RemoveCoupon(ctx, f.customer)
	require.NoError(t, err)
	assert.Nil(t, result.CouponCode)
	assert.True(t, result.Summary.Discount.IsZero())
}

func TestSummaryDropsCouponThatBecameInvalid(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	coupon := &models.Coupon{
		Code:               "ONCE",
		DiscountPercentage: decimal.NewFromInt(50),
		IsActive:           true,
		ValidFrom:          start.Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, f.db.Create(coupon).Error)
	_, err := f.add(1, start, 1)
	require.NoError(t, err)
	_, err = f.svc.ApplyCoupon(ctx, f.customer, "ONCE")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(coupon).Update("is_active", false).Error)

	summary, err := f.svc.Summary(ctx, f.customer)
	require.NoError(t, err)
	require.NotNil(t, summary.CouponCode)
	assert.True(t, summary.Discount.IsZero())
	assert.Equal(t, "This coupon is inactive", summary.CouponMessage)
}
