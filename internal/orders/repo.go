package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.RentalOrder) error {
	return r.db.WithContext(ctx).
		Omit("Lines", "Invoice", "Pickup", "Return", "Customer", "Vendor").
		Create(order).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Product").Create(&lines).Error
}

func (r *repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Lines.Product").
		Preload("Invoice").
		Preload("Invoice.Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Preload("Pickup").
		Preload("Return").
		Preload("Customer").
		Preload("Vendor").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.RentalOrder, error) {
	page, err := pagination.Keyset(query.Pagination)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Preload("Lines").
		Preload("Invoice").
		Preload("Customer")
	if query.CustomerID != nil {
		qb = qb.Where("customer_id = ?", *query.CustomerID)
	}
	if query.VendorID != nil {
		qb = qb.Where("vendor_id = ?", *query.VendorID)
	}
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	var rows []models.RentalOrder
	if err := qb.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOut returns orders whose goods are with the customer.
func (r *repository) ListOut(ctx context.Context, vendorID *uuid.UUID) ([]models.RentalOrder, error) {
	qb := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Customer").
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusPickedUp, enums.OrderStatusRented})
	if vendorID != nil {
		qb = qb.Where("vendor_id = ?", *vendorID)
	}
	var rows []models.RentalOrder
	if err := qb.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, confirmedAt *time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if confirmedAt != nil {
		updates["confirmed_at"] = *confirmedAt
	}
	return r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}
