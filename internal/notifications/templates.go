package notifications

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// InvoiceEmail is the content of the invoice mail.
type InvoiceEmail struct {
	Brand          string
	SupportContact string
	CustomerName   string
	InvoiceNumber  string
	OrderNumber    string
	Total          string
	Balance        string
	DueDate        *time.Time
}

// Render builds the subject and bodies.
func (e InvoiceEmail) Render() (subject, text, htmlBody string) {
	subject = fmt.Sprintf("Invoice %s - %s", e.InvoiceNumber, e.Brand)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", e.CustomerName)
	fmt.Fprintf(&b, "Please find attached invoice %s for order %s.\n\n", e.InvoiceNumber, e.OrderNumber)
	fmt.Fprintf(&b, "Total amount: %s\nBalance due: %s\n", e.Total, e.Balance)
	if e.DueDate != nil {
		fmt.Fprintf(&b, "Due date: %s\n", e.DueDate.Format("02 Jan 2006"))
	}
	fmt.Fprintf(&b, "\nThank you for renting with %s.\n%s\n", e.Brand, e.SupportContact)
	text = b.String()

	htmlBody = "<html><body>" + paragraphs(text) + "</body></html>"
	return subject, text, htmlBody
}

// ReturnReminderEmail tells a customer their rental is due back or overdue.
type ReturnReminderEmail struct {
	Brand          string
	SupportContact string
	CustomerName   string
	OrderNumber    string
	ReturnDate     time.Time
	Overdue        bool
}

func (e ReturnReminderEmail) Render() (subject, text, htmlBody string) {
	due := e.ReturnDate.Format("02 Jan 2006 15:04 MST")
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", e.CustomerName)
	if e.Overdue {
		subject = fmt.Sprintf("Overdue return: order %s", e.OrderNumber)
		fmt.Fprintf(&b, "The items on order %s were due back on %s. Late fees apply for every extra day.\n", e.OrderNumber, due)
	} else {
		subject = fmt.Sprintf("Return reminder: order %s", e.OrderNumber)
		fmt.Fprintf(&b, "The items on order %s are due back on %s.\n", e.OrderNumber, due)
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", e.Brand, e.SupportContact)
	text = b.String()

	htmlBody = "<html><body>" + paragraphs(text) + "</body></html>"
	return subject, text, htmlBody
}

func paragraphs(text string) string {
	var b strings.Builder
	for _, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(line)
		}
		b.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>")
	}
	return b.String()
}
