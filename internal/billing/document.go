package billing

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/checkout"
)

// Party is an addressed block on the invoice.
type Party struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Address string
	GSTIN   string
}

// DocumentLine is one row of the line table.
type DocumentLine struct {
	Description string
	Period      string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// DocumentData is everything printed on an invoice.
type DocumentData struct {
	Brand          string
	SupportContact string
	Vendor         Party
	BillTo         Party
	InvoiceNumber  string
	IssuedAt       time.Time
	DueDate        *time.Time
	Status         string
	PaymentTerm    string
	OrderNumber    string
	OrderDate      time.Time
	DeliveryMethod string
	Lines          []DocumentLine
	Totals         checkout.Totals
	TaxRate        decimal.Decimal
	AmountPaid     decimal.Decimal
	Balance        decimal.Decimal
}

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// RenderInvoice draws the invoice as an A4 PDF. The vendor's company name brands the
// header when present, otherwise the marketplace title is used.
func RenderInvoice(data DocumentData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+data.InvoiceNumber, true)
	pdf.SetCreator(data.Brand, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("Thank you for renting with %s. %s", data.Brand, data.SupportContact)
		pdf.CellFormat(0, 5, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	content := width - 2*pageMargin

	// Header
	title := data.Brand
	if company := strings.TrimSpace(data.Vendor.Company); company != "" {
		title = company
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(content/2, 10, tr(title), "", 0, "L", false, 0, "")
	pdf.CellFormat(content/2, 10, "INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range partyLines(data.Vendor, false) {
		pdf.CellFormat(content, 4.5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Bill-to and invoice/order block side by side.
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(content/2, lineHeight, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range partyLines(data.BillTo, true) {
		pdf.CellFormat(content/2, 4.5, tr(line), "", 1, "L", false, 0, "")
	}
	leftBottom := pdf.GetY()

	pdf.SetXY(pageMargin+content/2, top)
	meta := [][2]string{
		{"Invoice #", data.InvoiceNumber},
		{"Issued", data.IssuedAt.Format("02 Jan 2006")},
		{"Order #", data.OrderNumber},
		{"Order date", data.OrderDate.Format("02 Jan 2006")},
		{"Delivery", humanize(data.DeliveryMethod)},
		{"Payment term", humanize(data.PaymentTerm)},
		{"Status", humanize(data.Status)},
	}
	if data.DueDate != nil {
		meta = append(meta, [2]string{"Due date", data.DueDate.Format("02 Jan 2006")})
	}
	for _, row := range meta {
		pdf.SetX(pageMargin + content/2)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(content/4, 4.5, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(content/4, 4.5, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.SetY(max(leftBottom, pdf.GetY()) + 6)

	// Line table
	cols := []float64{content * 0.34, content * 0.28, content * 0.08, content * 0.15, content * 0.15}
	headers := []string{"Item", "Rental period", "Qty", "Unit price", "Amount"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(233, 236, 239)
	for i, header := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(cols[i], 7, header, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range data.Lines {
		pdf.CellFormat(cols[0], lineHeight, tr(truncate(line.Description, 40)), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], lineHeight, line.Period, "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2], lineHeight, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], lineHeight, money(line.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4], lineHeight, money(line.Total), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(content, 1, "", "T", 1, "L", false, 0, "")
	pdf.Ln(3)

	// Totals
	totals := [][2]string{
		{"Subtotal", money(data.Totals.Subtotal)},
	}
	if data.Totals.Discount.IsPositive() {
		totals = append(totals, [2]string{"Discount", "-" + money(data.Totals.Discount)})
	}
	totals = append(totals,
		[2]string{fmt.Sprintf("Tax (%s%%)", data.TaxRate.StringFixed(2)), money(data.Totals.Tax)},
		[2]string{"Security deposit", money(data.Totals.SecurityDeposit)},
	)
	if data.Totals.LateFee.IsPositive() {
		totals = append(totals, [2]string{"Late / damage fee", money(data.Totals.LateFee)})
	}
	labelWidth := content * 0.25
	for _, row := range totals {
		pdf.SetX(pageMargin + content - labelWidth*2)
		pdf.CellFormat(labelWidth, lineHeight, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(labelWidth, lineHeight, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	for _, row := range [][2]string{
		{"Total", money(data.Totals.GrandTotal)},
		{"Paid", money(data.AmountPaid)},
		{"Balance due", money(data.Balance)},
	} {
		pdf.SetX(pageMargin + content - labelWidth*2)
		pdf.CellFormat(labelWidth, lineHeight+1, row[0], "T", 0, "L", false, 0, "")
		pdf.CellFormat(labelWidth, lineHeight+1, row[1], "T", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func partyLines(p Party, withName bool) []string {
	var lines []string
	if withName && p.Name != "" {
		lines = append(lines, p.Name)
	}
	if withName && p.Company != "" {
		lines = append(lines, p.Company)
	}
	for _, value := range []string{p.Address, p.Email, p.Phone} {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, value)
		}
	}
	if p.GSTIN != "" {
		lines = append(lines, "GSTIN: "+p.GSTIN)
	}
	return lines
}

func money(d decimal.Decimal) string {
	return "INR " + d.StringFixed(2)
}

func humanize(value string) string {
	if value == "" {
		return "-"
	}
	value = strings.ReplaceAll(value, "_", " ")
	return strings.ToUpper(value[:1]) + value[1:]
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
