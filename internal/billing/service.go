// Package billing creates invoices, reconciles payments and renders invoice documents.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/pkg/checkout"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderConfirmer interface {
	Transition(ctx context.Context, tx *gorm.DB, input orders.TransitionInput) (*models.RentalOrder, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error)
}

type ratesProvider interface {
	Rates(ctx context.Context) (settings.Rates, error)
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Orders orderConfirmer
	Events eventRecorder
	Rates  ratesProvider
	Mailer notifications.Mailer
	Rental config.RentalConfig
	Logger *logger.Logger
}

// Service orchestrates billing operations.
type Service struct {
	repo   Repository
	tx     txRunner
	orders orderConfirmer
	events eventRecorder
	rates  ratesProvider
	mailer notifications.Mailer
	rental config.RentalConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Orders == nil {
		return nil, errors.New("order service is required")
	}
	if params.Events == nil {
		return nil, errors.New("event recorder is required")
	}
	if params.Rates == nil {
		return nil, errors.New("rates provider is required")
	}
	if params.Mailer == nil {
		return nil, errors.New("mailer is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		repo:   params.Repo,
		tx:     params.Tx,
		orders: params.Orders,
		events: params.Events,
		rates:  params.Rates,
		mailer: params.Mailer,
		rental: params.Rental,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Recalculate derives tax and total from the amount fields:
// after = subtotal − discount, tax = after × rate / 100, total = after + tax + deposit + late fee.
func Recalculate(invoice *models.Invoice) {
	totals := checkout.ComputeTotals(invoice.Subtotal, invoice.DiscountAmount, invoice.TaxRate, invoice.SecurityDeposit, invoice.LateFee)
	invoice.TaxAmount = totals.Tax
	invoice.TotalAmount = totals.GrandTotal
}

// reconcile sets the payment-derived status. Draft, sent and cancelled invoices without
// payments keep their status.
func reconcile(invoice *models.Invoice, at time.Time) {
	switch {
	case invoice.AmountPaid.IsPositive() && invoice.AmountPaid.GreaterThanOrEqual(invoice.TotalAmount):
		invoice.Status = enums.InvoiceStatusPaid
		if invoice.PaidAt == nil {
			paidAt := at
			invoice.PaidAt = &paidAt
		}
	case invoice.AmountPaid.IsPositive():
		invoice.Status = enums.InvoiceStatusPartiallyPaid
		invoice.PaidAt = nil
	}
}

// CreateInvoiceInput carries vendor-scoped amounts for a new invoice.
type CreateInvoiceInput struct {
	OrderID         uuid.UUID
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	TaxRate         decimal.Decimal
	SecurityDeposit decimal.Decimal
	PaymentTerm     enums.PaymentTerm
}

// CreateForOrder inserts the invoice inside the caller's transaction.
func (s *Service) CreateForOrder(ctx context.Context, tx *gorm.DB, input CreateInvoiceInput) (*models.Invoice, error) {
	repo := s.repo.WithTx(tx)
	now := s.now().UTC()
	number, err := orders.NextNumber(ctx, orders.InvoiceNumberPrefix, now, repo.InvoiceNumberExists)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate invoice number")
	}
	term := input.PaymentTerm
	if term == "" {
		term = enums.PaymentTermFullUpfront
	}
	invoice := &models.Invoice{
		InvoiceNumber:   number,
		OrderID:         input.OrderID,
		Status:          enums.InvoiceStatusDraft,
		PaymentTerm:     term,
		Subtotal:        input.Subtotal,
		DiscountAmount:  input.Discount,
		TaxRate:         input.TaxRate,
		SecurityDeposit: input.SecurityDeposit,
		LateFee:         decimal.Zero,
		AmountPaid:      decimal.Zero,
	}
	if days := s.rental.InvoiceDueDays; days > 0 {
		due := now.AddDate(0, 0, days)
		invoice.DueDate = &due
	}
	Recalculate(invoice)
	if err := repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice")
	}
	return invoice, nil
}

// EnsureInvoice returns the order's invoice, creating one from current rates if missing.
func (s *Service) EnsureInvoice(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*InvoiceDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(order.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
	}

	var invoice *models.Invoice
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.repo.WithTx(tx).FindByOrderID(ctx, orderID)
		if err == nil {
			invoice = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
		}
		rates, err := s.rates.Rates(ctx)
		if err != nil {
			return err
		}
		invoice, err = s.CreateForOrder(ctx, tx, CreateInvoiceInput{
			OrderID:         orderID,
			Subtotal:        order.Subtotal(),
			TaxRate:         rates.TaxRate,
			SecurityDeposit: rates.SecurityDeposit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewInvoiceDTO(invoice)
	return &dto, nil
}

// ApplyFees replaces the invoice's late fee and recomputes it inside the caller's transaction.
func (s *Service) ApplyFees(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lateFee decimal.Decimal) (*models.Invoice, error) {
	repo := s.repo.WithTx(tx)
	invoice, err := repo.LockByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	invoice.LateFee = lateFee.Round(2)
	Recalculate(invoice)
	reconcile(invoice, s.now().UTC())
	if err := repo.SaveAmounts(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update invoice")
	}
	return invoice, nil
}

// GetInvoice returns the invoice to its customer, the owning vendor or an admin.
func (s *Service) GetInvoice(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) (*InvoiceDTO, error) {
	invoice, _, err := s.loadAuthorized(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	dto := NewInvoiceDTO(invoice)
	return &dto, nil
}

// RecordPayment books a staff-entered payment.
func (s *Service) RecordPayment(ctx context.Context, actor types.Actor, invoiceID uuid.UUID, input RecordPaymentInput) (*PaymentResult, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(input.Method))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	if _, _, err := s.loadAuthorized(ctx, actor, invoiceID); err != nil {
		return nil, err
	}
	actorID := actor.UserID
	return s.pay(ctx, paymentRequest{
		InvoiceID:  invoiceID,
		Amount:     input.Amount,
		Method:     method,
		Reference:  strings.TrimSpace(input.ReferenceNumber),
		Notes:      strings.TrimSpace(input.Notes),
		RecordedBy: &actorID,
	})
}

// Pay settles the full balance on behalf of the customer through the simulated gateway.
// A fully paid invoice confirms a pending order.
func (s *Service) Pay(ctx context.Context, actor types.Actor, invoiceID uuid.UUID, input PayInput) (*PaymentResult, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(input.Method))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	invoice, order, err := s.loadAuthorized(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the customer can pay this invoice")
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is cancelled")
	}
	if !invoice.Balance().IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already paid")
	}
	actorID := actor.UserID
	return s.pay(ctx, paymentRequest{
		InvoiceID:    invoiceID,
		Amount:       invoice.Balance(),
		Method:       method,
		Reference:    GatewayReference(),
		RecordedBy:   &actorID,
		ConfirmOrder: true,
	})
}

// GatewayReference mimics a gateway transaction id: pay_ followed by 12 digits.
func GatewayReference() string {
	return fmt.Sprintf("pay_%012d", rand.Int64N(1_000_000_000_000))
}

type paymentRequest struct {
	InvoiceID    uuid.UUID
	Amount       decimal.Decimal
	Method       enums.PaymentMethod
	Reference    string
	Notes        string
	RecordedBy   *uuid.UUID
	ConfirmOrder bool
}

func (s *Service) pay(ctx context.Context, req paymentRequest) (*PaymentResult, error) {
	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.LockByID(ctx, req.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
		}

		amount := req.Amount.Round(2)
		if !amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
		}
		balance := invoice.Balance()
		if amount.GreaterThan(balance) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "amount exceeds balance due of %s", balance.StringFixed(2)).
				WithDetails(map[string]any{"balance": balance.StringFixed(2)})
		}

		now := s.now().UTC()
		payment := &models.Payment{
			InvoiceID:       invoice.ID,
			Amount:          amount,
			Method:          req.Method,
			ReferenceNumber: req.Reference,
			Notes:           req.Notes,
			RecordedBy:      req.RecordedBy,
			PaidAt:          now,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
		}
		paid, err := repo.SumPayments(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum payments")
		}
		invoice.AmountPaid = paid
		reconcile(invoice, now)
		if err := repo.SaveAmounts(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update invoice")
		}

		if _, err := s.events.Record(ctx, tx, ledger.RecordEventInput{
			OrderID:     invoice.OrderID,
			ActorUserID: req.RecordedBy,
			Type:        enums.OrderEventTypePaymentRecorded,
			Metadata: map[string]any{
				"invoice_id":     invoice.ID.String(),
				"amount":         amount.StringFixed(2),
				"payment_method": req.Method.String(),
				"reference":      req.Reference,
				"invoice_status": invoice.Status.String(),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment event")
		}

		if req.ConfirmOrder && invoice.Status == enums.InvoiceStatusPaid {
			order, err := s.repo.WithTx(tx).FindOrder(ctx, invoice.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
			}
			if order.Status == enums.OrderStatusPending {
				if _, err := s.orders.Transition(ctx, tx, orders.TransitionInput{
					OrderID:     order.ID,
					Status:      enums.OrderStatusConfirmed,
					ActorUserID: req.RecordedBy,
					Reason:      "invoice paid",
				}); err != nil {
					return err
				}
			}
		}

		refreshed, err := repo.FindByID(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
		}
		result = PaymentResult{Payment: newPaymentDTO(*payment), Invoice: NewInvoiceDTO(refreshed)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"invoice_id": req.InvoiceID.String(),
		"amount":     result.Payment.Amount.StringFixed(2),
		"status":     result.Invoice.Status.String(),
	}), "payment recorded")
	return &result, nil
}

// Document renders the invoice PDF and returns it with a download filename.
func (s *Service) Document(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) ([]byte, string, error) {
	invoice, order, err := s.loadAuthorized(ctx, actor, invoiceID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := RenderInvoice(s.documentData(invoice, order))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	return pdf, fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNumber), nil
}

// EmailInvoice mails the PDF to the customer. Delivery failures are reported in the
// result rather than returned as errors, and are not retried.
func (s *Service) EmailInvoice(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) (*EmailResult, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	invoice, order, err := s.loadAuthorized(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	if order.Customer == nil || strings.TrimSpace(order.Customer.Email) == "" {
		return &EmailResult{Sent: false, Message: "customer has no email address"}, nil
	}

	pdf, err := RenderInvoice(s.documentData(invoice, order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	subject, text, html := notifications.InvoiceEmail{
		Brand:          s.brand(),
		SupportContact: s.rental.SupportContact,
		CustomerName:   order.Customer.FullName(),
		InvoiceNumber:  invoice.InvoiceNumber,
		OrderNumber:    order.OrderNumber,
		Total:          invoice.TotalAmount.StringFixed(2),
		Balance:        invoice.Balance().StringFixed(2),
		DueDate:        invoice.DueDate,
	}.Render()

	sendErr := s.mailer.Send(ctx, notifications.Message{
		To:        order.Customer.Email,
		ToName:    order.Customer.FullName(),
		Subject:   subject,
		PlainText: text,
		HTML:      html,
		Attachments: []notifications.Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNumber),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
	result := &EmailResult{Sent: sendErr == nil, Message: "Invoice emailed to " + order.Customer.Email}
	if sendErr != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "invoice email failed", sendErr)
		result.Message = "Failed to send invoice email"
	}

	actorID := actor.UserID
	if _, err := s.events.Record(ctx, nil, ledger.RecordEventInput{
		OrderID:     order.ID,
		ActorUserID: &actorID,
		Type:        enums.OrderEventTypeInvoiceEmailed,
		Metadata:    map[string]any{"invoice_id": invoice.ID.String(), "sent": result.Sent},
	}); err != nil {
		s.logg.Error(ctx, "record invoice email event", err)
	}
	return result, nil
}

func (s *Service) documentData(invoice *models.Invoice, order *models.RentalOrder) DocumentData {
	data := DocumentData{
		Brand:          s.brand(),
		SupportContact: s.rental.SupportContact,
		InvoiceNumber:  invoice.InvoiceNumber,
		IssuedAt:       invoice.CreatedAt,
		DueDate:        invoice.DueDate,
		Status:         invoice.Status.String(),
		PaymentTerm:    invoice.PaymentTerm.String(),
		OrderNumber:    order.OrderNumber,
		OrderDate:      order.CreatedAt,
		DeliveryMethod: order.DeliveryMethod.String(),
		Totals: checkout.Totals{
			Subtotal:        invoice.Subtotal,
			Discount:        invoice.DiscountAmount,
			AfterDiscount:   invoice.Subtotal.Sub(invoice.DiscountAmount),
			Tax:             invoice.TaxAmount,
			SecurityDeposit: invoice.SecurityDeposit,
			LateFee:         invoice.LateFee,
			GrandTotal:      invoice.TotalAmount,
		},
		TaxRate:    invoice.TaxRate,
		AmountPaid: invoice.AmountPaid,
		Balance:    invoice.Balance(),
	}
	if v := order.Vendor; v != nil {
		data.Vendor = Party{
			Name:    v.FullName(),
			Company: v.CompanyName,
			Email:   v.Email,
			Phone:   v.Phone,
			Address: joinAddress(v.Address, v.City, v.State, v.Pincode),
			GSTIN:   v.GSTIN,
		}
	}
	if c := order.Customer; c != nil {
		data.BillTo = Party{
			Name:    c.FullName(),
			Company: c.CompanyName,
			Email:   c.Email,
			Phone:   c.Phone,
			Address: joinAddress(order.DeliveryAddress, order.DeliveryCity, order.DeliveryState, order.DeliveryPincode),
			GSTIN:   c.GSTIN,
		}
	}
	for _, line := range order.Lines {
		description := line.ProductID.String()
		if line.Product != nil {
			description = line.Product.Name
		}
		data.Lines = append(data.Lines, DocumentLine{
			Description: description,
			Period:      line.StartDate.Format("02 Jan") + " - " + line.EndDate.Format("02 Jan 2006"),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total(),
		})
	}
	return data
}

func (s *Service) brand() string {
	if s.rental.BrandName != "" {
		return s.rental.BrandName
	}
	return "RentEase"
}

// loadAuthorized loads an invoice with its order. Customers see their own invoices, vendors
// the invoices of their orders and admins everything.
func (s *Service) loadAuthorized(ctx context.Context, actor types.Actor, invoiceID uuid.UUID) (*models.Invoice, *models.RentalOrder, error) {
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	order, err := s.loadOrder(ctx, invoice.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.CustomerID != actor.UserID && !actor.CanManage(order.VendorID) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, order, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.RentalOrder, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}
