package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(d("10000"), d("1000"), d("18"), d("1000"), d("250"))

	assert.Equal(t, "9000.00", totals.AfterDiscount.StringFixed(2))
	assert.Equal(t, "1620.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "11870.00", totals.GrandTotal.StringFixed(2))
}

func TestTaxOnRoundsToCents(t *testing.T) {
	assert.Equal(t, "12.35", TaxOn(d("68.61"), d("18")).StringFixed(2))
}

func TestAllocateResidualGoesToLastShare(t *testing.T) {
	shares := Allocate(d("999"), []decimal.Decimal{d("7000"), d("3000")})
	assert.Equal(t, "699.30", shares[0].StringFixed(2))
	assert.Equal(t, "299.70", shares[1].StringFixed(2))

	thirds := Allocate(d("100"), []decimal.Decimal{d("1"), d("1"), d("1")})
	assert.Equal(t, "33.33", thirds[0].StringFixed(2))
	assert.Equal(t, "33.33", thirds[1].StringFixed(2))
	assert.Equal(t, "33.34", thirds[2].StringFixed(2))
	assert.True(t, thirds[0].Add(thirds[1]).Add(thirds[2]).Equal(d("100")))
}

func TestAllocateEdgeCases(t *testing.T) {
	assert.Empty(t, Allocate(d("10"), nil))

	zero := Allocate(d("10"), []decimal.Decimal{decimal.Zero, decimal.Zero})
	assert.True(t, zero[0].IsZero())
	assert.Equal(t, "10.00", zero[1].StringFixed(2))
}
