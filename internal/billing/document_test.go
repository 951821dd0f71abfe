package billing

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentease/rentease-backend/pkg/checkout"
)

func TestRenderInvoiceManyLines(t *testing.T) {
	lines := make([]DocumentLine, 0, 60)
	for range 60 {
		lines = append(lines, DocumentLine{
			Description: "Professional DSLR camera kit with two lenses and a tripod",
			Period:      "01 Jun - 04 Jun 2026",
			Quantity:    1,
			UnitPrice:   decimal.NewFromInt(4500),
			Total:       decimal.NewFromInt(4500),
		})
	}
	pdf, err := RenderInvoice(DocumentData{
		Brand:         "RentEase",
		BillTo:        Party{Name: "Zoë Customer"},
		InvoiceNumber: "INV202606011234",
		IssuedAt:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Lines:         lines,
		Totals:        checkout.ComputeTotals(decimal.NewFromInt(270000), decimal.Zero, decimal.NewFromInt(18), decimal.NewFromInt(1000), decimal.Zero),
		TaxRate:       decimal.NewFromInt(18),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "Full upfront", humanize("full_upfront"))
	assert.Equal(t, "-", humanize(""))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "INR 12.50", money(decimal.RequireFromString("12.5")))
	assert.Equal(t, "1 Main St, Pune", joinAddress(" 1 Main St ", "", "Pune"))
}
