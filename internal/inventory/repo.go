package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// Repository reads and writes inventory reservations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a reservation repository.
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

// LockProduct loads the product row with FOR UPDATE so concurrent checkouts serialize on it.
func (r *Repository) LockProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads a variant of the product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// ReservedProductQuantity sums active reservations that draw on the product's own stock
// and overlap [start, end). Reservations against variants with their own stock are excluded.
func (r *Repository) ReservedProductQuantity(ctx context.Context, productID uuid.UUID, start, end time.Time) (int, error) {
	stocked := r.db.Model(&models.ProductVariant{}).
		Select("id").
		Where("product_id = ? AND quantity_on_hand IS NOT NULL", productID)

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryReservation{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ? AND status = ?", productID, enums.ReservationStatusActive).
		Where("start_date < ? AND end_date > ?", end, start).
		Where("(variant_id IS NULL OR variant_id NOT IN (?))", stocked).
		Scan(&total).Error
	return int(total), err
}

// ReservedVariantQuantity sums active reservations of one variant overlapping [start, end).
func (r *Repository) ReservedVariantQuantity(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryReservation{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("variant_id = ? AND status = ?", variantID, enums.ReservationStatusActive).
		Where("start_date < ? AND end_date > ?", end, start).
		Scan(&total).Error
	return int(total), err
}

// Create inserts reservations.
func (r *Repository) Create(ctx context.Context, reservations []models.InventoryReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&reservations).Error
}

// ReleaseByOrder flips every active reservation of the order to released.
func (r *Repository) ReleaseByOrder(ctx context.Context, orderID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryReservation{}).
		Where("order_id = ? AND status = ?", orderID, enums.ReservationStatusActive).
		Updates(map[string]any{
			"status":      enums.ReservationStatusReleased,
			"released_at": at,
		})
	return res.RowsAffected, res.Error
}

// ListByOrder returns the order's reservations.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error) {
	var rows []models.InventoryReservation
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
