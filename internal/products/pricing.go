package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Rates are the effective per-period prices of a product or variant.
type Rates struct {
	Hour decimal.NullDecimal
	Day  decimal.NullDecimal
	Week decimal.NullDecimal
}

// EffectiveRates resolves variant rates, falling back to the parent product for unset ones.
func EffectiveRates(product *models.Product, variant *models.ProductVariant) Rates {
	rates := Rates{Hour: product.PricePerHour, Day: product.PricePerDay, Week: product.PricePerWeek}
	if variant == nil {
		return rates
	}
	if isSet(variant.PricePerHour) {
		rates.Hour = variant.PricePerHour
	}
	if isSet(variant.PricePerDay) {
		rates.Day = variant.PricePerDay
	}
	if isSet(variant.PricePerWeek) {
		rates.Week = variant.PricePerWeek
	}
	return rates
}

// RentalPrice prices one unit over [start, end). Whole weeks win when a week rate is set,
// then whole days, then fractional hours; without a usable rate the sales price applies.
func RentalPrice(product *models.Product, variant *models.ProductVariant, start, end time.Time) decimal.Decimal {
	if product == nil || !start.Before(end) {
		return decimal.Zero
	}
	rates := EffectiveRates(product, variant)

	duration := end.Sub(start)
	hours := decimal.NewFromFloat(duration.Hours())
	days := int64(duration / (24 * time.Hour))
	weeks := days / 7

	var price decimal.Decimal
	switch {
	case weeks > 0 && isSet(rates.Week):
		price = rates.Week.Decimal.Mul(decimal.NewFromInt(weeks))
	case days > 0 && isSet(rates.Day):
		price = rates.Day.Decimal.Mul(decimal.NewFromInt(days))
	case hours.IsPositive() && isSet(rates.Hour):
		price = rates.Hour.Decimal.Mul(hours)
	default:
		price = product.SalesPrice
	}
	return price.Round(2)
}

func isSet(value decimal.NullDecimal) bool {
	return value.Valid && value.Decimal.IsPositive()
}
