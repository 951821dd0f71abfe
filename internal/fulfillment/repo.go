package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Repository persists pickup and return documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	PickupExists(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreatePickup(ctx context.Context, pickup *models.Pickup) error
	ReturnExists(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateReturn(ctx context.Context, record *models.ReturnRecord) error
	FindLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the fulfillment repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) PickupExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.Pickup{}, orderID)
}

func (r *repository) CreatePickup(ctx context.Context, pickup *models.Pickup) error {
	return r.db.WithContext(ctx).Create(pickup).Error
}

func (r *repository) ReturnExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.ReturnRecord{}, orderID)
}

func (r *repository) CreateReturn(ctx context.Context, record *models.ReturnRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindLines(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) exists(ctx context.Context, model any, orderID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).
		Model(model).
		Select("id").
		Where("order_id = ?", orderID).
		Take(&id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
