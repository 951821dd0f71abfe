// Package coupons validates and redeems percentage discount codes.
package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid checks the coupon's own state at now. The message explains a rejection.
func IsValid(coupon *models.Coupon, now time.Time) (bool, string) {
	switch {
	case !coupon.IsActive:
		return false, "This coupon is inactive"
	case now.Before(coupon.ValidFrom):
		return false, "This coupon is not yet valid"
	case coupon.ValidUntil != nil && now.After(*coupon.ValidUntil):
		return false, "This coupon has expired"
	case coupon.MaxUses > 0 && coupon.TimesUsed >= coupon.MaxUses:
		return false, "This coupon has reached its usage limit"
	}
	return true, "Coupon is valid"
}

// Discount is subtotal × percentage / 100 rounded to cents.
func Discount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	return subtotal.Mul(coupon.DiscountPercentage).Div(hundred).Round(2)
}

// CreateCouponInput is the admin payload for a new coupon.
type CreateCouponInput struct {
	Code               string          `json:"code" validate:"required,max=50"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	MaxUses            int             `json:"max_uses" validate:"gte=0"`
	ValidFrom          *time.Time      `json:"valid_from,omitempty"`
	ValidUntil         *time.Time      `json:"valid_until,omitempty"`
	IsActive           *bool           `json:"is_active,omitempty"`
}

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	IsActive           bool            `json:"is_active"`
	MaxUses            int             `json:"max_uses"`
	TimesUsed          int             `json:"times_used"`
	ValidFrom          time.Time       `json:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until,omitempty"`
	Valid              bool            `json:"valid"`
}

// RedeemInput records a coupon use against an order.
type RedeemInput struct {
	CouponID uuid.UUID
	UserID   uuid.UUID
	OrderID  uuid.UUID
	Discount decimal.Decimal
}

// Service exposes coupon checks and administration.
type Service interface {
	// CanBeUsedBy resolves the code and checks validity plus prior use by the user.
	// Rejections are validation errors carrying the user-facing message.
	CanBeUsedBy(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error
	Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) CanBeUsedBy(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID) (*models.Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	repo := s.repo.WithTx(tx)
	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid coupon code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	if ok, message := IsValid(coupon, s.now()); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}
	used, err := repo.HasUsage(ctx, coupon.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check coupon usage")
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "You have already used this coupon")
	}
	return coupon, nil
}

// Redeem must run inside the checkout transaction. The (coupon, user) unique constraint
// turns a concurrent second redemption into a conflict.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error {
	repo := s.repo.WithTx(tx)
	orderID := input.OrderID
	usage := &models.CouponUsage{
		CouponID:       input.CouponID,
		UserID:         input.UserID,
		OrderID:        &orderID,
		DiscountAmount: input.Discount,
	}
	if err := repo.CreateUsage(ctx, usage); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon already used by this customer")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record coupon usage")
	}
	if err := repo.IncrementTimesUsed(ctx, input.CouponID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment coupon usage")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	pct := input.DiscountPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	}
	if input.MaxUses < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_uses must not be negative")
	}
	validFrom := s.now().UTC()
	if input.ValidFrom != nil {
		validFrom = input.ValidFrom.UTC()
	}
	if input.ValidUntil != nil && !input.ValidUntil.After(validFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:               code,
		DiscountPercentage: pct,
		IsActive:           active,
		MaxUses:            input.MaxUses,
		ValidFrom:          validFrom,
		ValidUntil:         input.ValidUntil,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	dto := s.toDTO(coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, s.toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) toDTO(coupon *models.Coupon) CouponDTO {
	valid, _ := IsValid(coupon, s.now())
	return CouponDTO{
		ID:                 coupon.ID,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
		IsActive:           coupon.IsActive,
		MaxUses:            coupon.MaxUses,
		TimesUsed:          coupon.TimesUsed,
		ValidFrom:          coupon.ValidFrom,
		ValidUntil:         coupon.ValidUntil,
		Valid:              valid,
	}
}
