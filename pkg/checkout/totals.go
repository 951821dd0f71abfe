// Package checkout holds the money arithmetic shared by the cart, checkout and invoices.
package checkout

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the full breakdown of a cart or invoice.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	AfterDiscount   decimal.Decimal `json:"subtotal_after_discount"`
	Tax             decimal.Decimal `json:"tax"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	LateFee         decimal.Decimal `json:"late_fee"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// TaxOn is amount × rate / 100 rounded to cents.
func TaxOn(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred).Round(2)
}

// ComputeTotals applies discount, tax, deposit and late fee:
// after = subtotal − discount; tax = after × rate / 100; total = after + tax + deposit + late fee.
func ComputeTotals(subtotal, discount, taxRate, deposit, lateFee decimal.Decimal) Totals {
	after := subtotal.Sub(discount)
	tax := TaxOn(after, taxRate)
	return Totals{
		Subtotal:        subtotal,
		Discount:        discount,
		AfterDiscount:   after,
		Tax:             tax,
		SecurityDeposit: deposit,
		LateFee:         lateFee,
		GrandTotal:      after.Add(tax).Add(deposit).Add(lateFee),
	}
}

// Allocate splits amount across weights proportionally, rounding each share to cents.
// The last share absorbs the rounding residual so the shares always sum to amount.
// With zero total weight the whole amount lands on the last share.
func Allocate(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}
	total := decimal.Zero
	for _, weight := range weights {
		total = total.Add(weight)
	}

	allocated := decimal.Zero
	last := len(weights) - 1
	for i := 0; i < last; i++ {
		share := decimal.Zero
		if total.IsPositive() {
			share = amount.Mul(weights[i]).Div(total).Round(2)
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[last] = amount.Sub(allocated)
	return shares
}
