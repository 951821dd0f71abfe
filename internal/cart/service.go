// Package cart manages the customer's draft quotation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/inventory"
	product "github.com/rentease/rentease-backend/internal/products"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/pkg/checkout"
	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
}

type availabilityChecker interface {
	AvailableQuantity(ctx context.Context, tx *gorm.DB, product *models.Product, variant *models.ProductVariant, window *inventory.Window) (int, error)
}

type couponChecker interface {
	CanBeUsedBy(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID) (*models.Coupon, error)
}

type ratesProvider interface {
	Rates(ctx context.Context) (settings.Rates, error)
}

// Service exposes cart operations for the authenticated customer.
type Service interface {
	GetOrCreateDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error)
	Summary(ctx context.Context, customerID uuid.UUID) (*Summary, error)
	AddLine(ctx context.Context, customerID uuid.UUID, input AddLineInput) (*Summary, error)
	RemoveLine(ctx context.Context, customerID, lineID uuid.UUID) (*Summary, error)
	ApplyCoupon(ctx context.Context, customerID uuid.UUID, code string) (*CouponResult, error)
	RemoveCoupon(ctx context.Context, customerID uuid.UUID) (*CouponResult, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Repo      CartRepository
	Products  productLoader
	Inventory availabilityChecker
	Coupons   couponChecker
	Rates     ratesProvider
	Logger    *logger.Logger
}

type service struct {
	repo      CartRepository
	products  productLoader
	inventory availabilityChecker
	coupons   couponChecker
	rates     ratesProvider
	logg      *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if params.Rates == nil {
		return nil, fmt.Errorf("rates provider required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      params.Repo,
		products:  params.Products,
		inventory: params.Inventory,
		coupons:   params.Coupons,
		rates:     params.Rates,
		logg:      logg,
	}, nil
}

func (s *service) GetOrCreateDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}
	quotation, err := s.repo.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return quotation, nil
}

func (s *service) Summary(ctx context.Context, customerID uuid.UUID) (*Summary, error) {
	quotation, err := s.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, quotation)
}

// AddLine prices the window and checks availability, counting overlapping lines of the
// same product already in the cart.
func (s *service) AddLine(ctx context.Context, customerID uuid.UUID, input AddLineInput) (*Summary, error) {
	start, end := input.StartDate.UTC(), input.EndDate.UTC()
	if !start.Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !item.IsRentable || !item.PublishOnWebsite {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for rent")
	}
	var variant *models.ProductVariant
	if input.VariantID != nil {
		variant, err = s.products.FindVariant(ctx, item.ID, *input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
		}
	}

	quotation, err := s.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}

	available, err := s.inventory.AvailableQuantity(ctx, nil, item, variant, &inventory.Window{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	inCart := 0
	for _, line := range quotation.Lines {
		if line.ProductID == item.ID && sameVariant(line.VariantID, input.VariantID) &&
			line.StartDate.Before(end) && line.EndDate.After(start) {
			inCart += line.Quantity
		}
	}
	if input.Quantity+inCart > available {
		return nil, pkgerrors.Newf(pkgerrors.CodeUnavailable, "only %d of %s available for the selected dates", max(available-inCart, 0), item.Name).
			WithDetails(map[string]any{"product_id": item.ID, "available": available, "in_cart": inCart})
	}

	line := &models.QuotationLine{
		QuotationID: quotation.ID,
		ProductID:   item.ID,
		VariantID:   input.VariantID,
		Quantity:    input.Quantity,
		StartDate:   start,
		EndDate:     end,
		UnitPrice:   product.RentalPrice(item, variant, start, end),
	}
	if err := s.repo.AddLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart line")
	}
	return s.Summary(ctx, customerID)
}

func (s *service) RemoveLine(ctx context.Context, customerID, lineID uuid.UUID) (*Summary, error) {
	quotation, err := s.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.DeleteLine(ctx, quotation.ID, lineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return s.Summary(ctx, customerID)
}

func (s *service) ApplyCoupon(ctx context.Context, customerID uuid.UUID, code string) (*CouponResult, error) {
	quotation, err := s.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.coupons.CanBeUsedBy(ctx, nil, code, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCouponCode(ctx, quotation.ID, &coupon.Code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply coupon")
	}
	quotation.CouponCode = &coupon.Code

	summary, err := s.summarize(ctx, quotation)
	if err != nil {
		return nil, err
	}
	return &CouponResult{
		Applied:    true,
		CouponCode: summary.CouponCode,
		Message:    fmt.Sprintf("Coupon %s applied: %s%% off", coupon.Code, coupon.DiscountPercentage.String()),
		Summary:    *summary,
	}, nil
}

func (s *service) RemoveCoupon(ctx context.Context, customerID uuid.UUID) (*CouponResult, error) {
	quotation, err := s.GetOrCreateDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCouponCode(ctx, quotation.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove coupon")
	}
	quotation.CouponCode = nil

	summary, err := s.summarize(ctx, quotation)
	if err != nil {
		return nil, err
	}
	return &CouponResult{Applied: false, Message: "Coupon removed", Summary: *summary}, nil
}

// summarize prices the cart. A stored coupon that no longer validates contributes no
// discount and its rejection message is surfaced instead.
func (s *service) summarize(ctx context.Context, quotation *models.Quotation) (*Summary, error) {
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ID:         quotation.ID,
		Lines:      make([]LineDTO, 0, len(quotation.Lines)),
		CouponCode: quotation.CouponCode,
		TaxRate:    rates.TaxRate,
	}
	subtotal := decimal.Zero
	for _, line := range quotation.Lines {
		summary.Lines = append(summary.Lines, newLineDTO(line))
		summary.ItemCount += line.Quantity
		subtotal = subtotal.Add(line.Total())
	}

	discount := decimal.Zero
	if code := quotation.CouponCode; code != nil && strings.TrimSpace(*code) != "" {
		coupon, err := s.coupons.CanBeUsedBy(ctx, nil, *code, quotation.CustomerID)
		switch {
		case err == nil:
			discount = coupons.Discount(coupon, subtotal)
			pct := coupon.DiscountPercentage
			summary.DiscountPercentage = &pct
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			summary.CouponMessage = pkgerrors.As(err).Message()
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"quotation_id": quotation.ID.String(),
				"coupon_code":  *code,
			}), "stored cart coupon no longer valid")
		default:
			return nil, err
		}
	}

	deposit := decimal.Zero
	if len(quotation.Lines) > 0 {
		deposit = rates.SecurityDeposit
	}
	summary.Totals = checkout.ComputeTotals(subtotal, discount, rates.TaxRate, deposit, decimal.Zero)
	return summary, nil
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

