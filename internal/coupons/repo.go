package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Repository persists coupons and their usages.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *Repository) List(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) HasUsage(ctx context.Context, couponID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateUsage(ctx context.Context, usage *models.CouponUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// IncrementTimesUsed bumps the counter atomically in SQL.
func (r *Repository) IncrementTimesUsed(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", couponID).
		UpdateColumn("times_used", gorm.Expr("times_used + 1")).Error
}
