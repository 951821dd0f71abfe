// Package checkout converts the customer's draft cart into one rental order per vendor.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/internal/cart"
	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/pkg/checkout"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type profileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReserveRequest) ([]models.InventoryReservation, error)
}

type couponRedeemer interface {
	CanBeUsedBy(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, input coupons.RedeemInput) error
}

type invoiceCreator interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, input billing.CreateInvoiceInput) (*models.Invoice, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error)
}

type ratesProvider interface {
	Rates(ctx context.Context) (settings.Rates, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*Result, error)
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx          txRunner
	CartRepo    cart.CartRepository
	OrdersRepo  orders.Repository
	Profiles    profileLoader
	Reservation reservationRunner
	Coupons     couponRedeemer
	Invoices    invoiceCreator
	Events      eventRecorder
	Rates       ratesProvider
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
}

type service struct {
	tx          txRunner
	cartRepo    cart.CartRepository
	ordersRepo  orders.Repository
	profiles    profileLoader
	reservation reservationRunner
	coupons     couponRedeemer
	invoices    invoiceCreator
	events      eventRecorder
	rates       ratesProvider
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile loader required")
	}
	if params.Reservation == nil {
		return nil, fmt.Errorf("reservation runner required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice creator required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	if params.Rates == nil {
		return nil, fmt.Errorf("rates provider required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:          params.Tx,
		cartRepo:    params.CartRepo,
		ordersRepo:  params.OrdersRepo,
		profiles:    params.Profiles,
		reservation: params.Reservation,
		coupons:     params.Coupons,
		invoices:    params.Invoices,
		events:      params.Events,
		rates:       params.Rates,
		metrics:     params.Metrics,
		logg:        logg,
		now:         time.Now,
	}, nil
}

var errEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")

type vendorGroup struct {
	vendorID uuid.UUID
	lines    []models.QuotationLine
	subtotal decimal.Decimal
}

// Execute runs the whole conversion in one transaction; any failure leaves the cart as it was.
func (s *service) Execute(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*Result, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}
	method, term, err := parseChoices(input)
	if err != nil {
		s.metrics.Observe(metrics.CheckoutOutcomeError, 0)
		return nil, err
	}

	var result *Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.execute(ctx, tx, customerID, method, term, input)
		return err
	})
	if err != nil {
		s.metrics.Observe(outcomeFor(err), 0)
		return nil, err
	}

	s.metrics.Observe(metrics.CheckoutOutcomeSuccess, len(result.Orders))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"quotation_id": result.QuotationID.String(),
		"orders":       len(result.Orders),
		"grand_total":  result.GrandTotal.StringFixed(2),
	}), "checkout completed")
	return result, nil
}

func (s *service) execute(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, method enums.DeliveryMethod, term enums.PaymentTerm, input CheckoutInput) (*Result, error) {
	cartRepo := s.cartRepo.WithTx(tx)
	ordersRepo := s.ordersRepo.WithTx(tx)

	quotation, err := cartRepo.FindDraft(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errEmptyCart
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(quotation.Lines) == 0 {
		return nil, errEmptyCart
	}

	checks := make([]checkout.LineValidationInput, 0, len(quotation.Lines))
	for _, line := range quotation.Lines {
		check := checkout.LineValidationInput{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			StartDate: line.StartDate,
			EndDate:   line.EndDate,
		}
		if line.Product != nil {
			check.ProductName = line.Product.Name
		}
		checks = append(checks, check)
	}
	if err := checkout.ValidateLines(checks); err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}

	coupon, err := s.resolveCoupon(ctx, tx, customerID, input.CouponCode, quotation.CouponCode)
	if err != nil {
		return nil, err
	}
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, err
	}

	groups := groupByVendor(quotation.Lines)
	subtotal := decimal.Zero
	weights := make([]decimal.Decimal, len(groups))
	for i, group := range groups {
		subtotal = subtotal.Add(group.subtotal)
		weights[i] = group.subtotal
	}
	discount := coupons.Discount(coupon, subtotal)
	totals := checkout.ComputeTotals(subtotal, discount, rates.TaxRate, rates.SecurityDeposit, decimal.Zero)
	discounts := checkout.Allocate(discount, weights)
	deposits := checkout.Allocate(rates.SecurityDeposit, weights)

	now := s.now().UTC()
	result := &Result{QuotationID: quotation.ID, Totals: totals, Orders: make([]VendorOrderResult, 0, len(groups))}
	for i, group := range groups {
		number, err := orders.NextNumber(ctx, orders.OrderNumberPrefix, now, ordersRepo.OrderNumberExists)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order number")
		}
		order := &models.RentalOrder{
			OrderNumber:     number,
			CustomerID:      customerID,
			VendorID:        group.vendorID,
			QuotationID:     &quotation.ID,
			Status:          enums.OrderStatusPending,
			DeliveryMethod:  method,
			DeliveryAddress: firstNonEmpty(input.DeliveryAddress, profile.Address),
			DeliveryCity:    firstNonEmpty(input.DeliveryCity, profile.City),
			DeliveryState:   firstNonEmpty(input.DeliveryState, profile.State),
			DeliveryPincode: firstNonEmpty(input.DeliveryPincode, profile.Pincode),
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			order.Notes = &notes
		}
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		lines := make([]models.OrderLine, 0, len(group.lines))
		for _, line := range group.lines {
			lines = append(lines, models.OrderLine{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
				StartDate: line.StartDate,
				EndDate:   line.EndDate,
				UnitPrice: line.UnitPrice,
			})
		}
		if err := ordersRepo.CreateLines(ctx, lines); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order lines")
		}

		requests := make([]inventory.ReserveRequest, len(lines))
		for j, line := range lines {
			requests[j] = inventory.ReserveRequest{
				OrderID:     order.ID,
				OrderLineID: line.ID,
				ProductID:   line.ProductID,
				VariantID:   line.VariantID,
				Quantity:    line.Quantity,
				Window:      inventory.Window{Start: line.StartDate, End: line.EndDate},
			}
		}
		if _, err := s.reservation.Reserve(ctx, tx, requests); err != nil {
			return nil, err
		}

		invoice, err := s.invoices.CreateForOrder(ctx, tx, billing.CreateInvoiceInput{
			OrderID:         order.ID,
			Subtotal:        group.subtotal,
			Discount:        discounts[i],
			TaxRate:         rates.TaxRate,
			SecurityDeposit: deposits[i],
			PaymentTerm:     term,
		})
		if err != nil {
			return nil, err
		}

		actor := customerID
		if _, err := s.events.Record(ctx, tx, ledger.RecordEventInput{
			OrderID:     order.ID,
			ActorUserID: &actor,
			Type:        enums.OrderEventTypeCreated,
			Metadata: map[string]any{
				"quotation_id":   quotation.ID.String(),
				"invoice_number": invoice.InvoiceNumber,
				"lines":          len(lines),
			},
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order event")
		}

		result.Orders = append(result.Orders, VendorOrderResult{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			VendorID:        order.VendorID,
			Status:          order.Status,
			InvoiceID:       invoice.ID,
			InvoiceNumber:   invoice.InvoiceNumber,
			Subtotal:        invoice.Subtotal,
			Discount:        invoice.DiscountAmount,
			Tax:             invoice.TaxAmount,
			SecurityDeposit: invoice.SecurityDeposit,
			Total:           invoice.TotalAmount,
		})
	}

	firstOrderID := result.Orders[0].OrderID
	if err := cartRepo.MarkConfirmed(ctx, quotation.ID, firstOrderID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm cart")
	}

	if coupon != nil {
		if err := s.coupons.Redeem(ctx, tx, coupons.RedeemInput{
			CouponID: coupon.ID,
			UserID:   customerID,
			OrderID:  firstOrderID,
			Discount: discount,
		}); err != nil {
			return nil, err
		}
		code := coupon.Code
		result.CouponCode = &code
	}
	return result, nil
}

// resolveCoupon prefers the code sent with the request over the one stored on the cart.
// A code that fails validation is dropped and checkout continues without a discount.
func (s *service) resolveCoupon(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, requested, stored *string) (*models.Coupon, error) {
	code := ""
	if requested != nil {
		code = strings.TrimSpace(*requested)
	}
	if code == "" && stored != nil {
		code = strings.TrimSpace(*stored)
	}
	if code == "" {
		return nil, nil
	}
	coupon, err := s.coupons.CanBeUsedBy(ctx, tx, code, customerID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.metrics.ObserveCoupon(false)
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"coupon_code": code,
				"reason":      pkgerrors.As(err).Message(),
			}), "coupon dropped at checkout")
			return nil, nil
		}
		return nil, err
	}
	s.metrics.ObserveCoupon(true)
	return coupon, nil
}

// groupByVendor keeps vendors in the order their first line appears in the cart.
func groupByVendor(lines []models.QuotationLine) []*vendorGroup {
	var groups []*vendorGroup
	index := map[uuid.UUID]*vendorGroup{}
	for _, line := range lines {
		vendorID := uuid.Nil
		if line.Product != nil {
			vendorID = line.Product.VendorID
		}
		group, ok := index[vendorID]
		if !ok {
			group = &vendorGroup{vendorID: vendorID, subtotal: decimal.Zero}
			index[vendorID] = group
			groups = append(groups, group)
		}
		group.lines = append(group.lines, line)
		group.subtotal = group.subtotal.Add(line.Total())
	}
	return groups
}

func parseChoices(input CheckoutInput) (enums.DeliveryMethod, enums.PaymentTerm, error) {
	method := enums.DeliveryMethodHomeDelivery
	if raw := strings.TrimSpace(input.DeliveryMethod); raw != "" {
		parsed, err := enums.ParseDeliveryMethod(raw)
		if err != nil {
			return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method")
		}
		method = parsed
	}
	term := enums.PaymentTermFullUpfront
	if raw := strings.TrimSpace(input.PaymentTerm); raw != "" {
		parsed, err := enums.ParsePaymentTerm(raw)
		if err != nil {
			return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment term")
		}
		term = parsed
	}
	return method, term, nil
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeUnavailable):
		return metrics.CheckoutOutcomeUnavailable
	case errors.Is(err, errEmptyCart):
		return metrics.CheckoutOutcomeEmptyCart
	default:
		return metrics.CheckoutOutcomeError
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
