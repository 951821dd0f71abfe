package product

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

func rate(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func TestRentalPrice(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	product := &models.Product{
		SalesPrice:   decimal.RequireFromString("25000"),
		PricePerHour: rate("100"),
		PricePerDay:  rate("1000"),
		PricePerWeek: rate("6000"),
	}

	cases := []struct {
		name    string
		product *models.Product
		end     time.Time
		want    string
	}{
		{"ten days uses one week", product, start.Add(10 * 24 * time.Hour), "6000.00"},
		{"fifteen days uses two weeks", product, start.Add(15 * 24 * time.Hour), "12000.00"},
		{"three days", product, start.Add(3 * 24 * time.Hour), "3000.00"},
		{"fractional hours", product, start.Add(90 * time.Minute), "150.00"},
		{"no rates falls back to sales price", &models.Product{SalesPrice: decimal.RequireFromString("499.99")}, start.Add(48 * time.Hour), "499.99"},
		{"zero week rate is unset", &models.Product{PricePerDay: rate("1800"), PricePerWeek: rate("0")}, start.Add(10 * 24 * time.Hour), "18000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RentalPrice(tc.product, nil, start, tc.end)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestRentalPriceWeekTierBeatsDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	product := &models.Product{PricePerDay: rate("3000"), PricePerWeek: rate("18000")}
	assert.Equal(t, "18000.00", RentalPrice(product, nil, start, start.Add(10*24*time.Hour)).StringFixed(2))
}

func TestRentalPriceVariantFallsBackToParent(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	product := &models.Product{PricePerDay: rate("1000"), PricePerWeek: rate("6000")}
	variant := &models.ProductVariant{PricePerDay: rate("1200")}

	assert.Equal(t, "2400.00", RentalPrice(product, variant, start, start.Add(48*time.Hour)).StringFixed(2))
	assert.Equal(t, "6000.00", RentalPrice(product, variant, start, start.Add(7*24*time.Hour)).StringFixed(2))
}

func TestRentalPriceEmptyWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, RentalPrice(&models.Product{SalesPrice: decimal.NewFromInt(10)}, nil, start, start).IsZero())
}
