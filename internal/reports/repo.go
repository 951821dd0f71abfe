package reports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// Repository runs the dashboard aggregates. A nil vendor id means every vendor.
type Repository interface {
	CountProducts(ctx context.Context, vendorID *uuid.UUID) (int64, error)
	CountOrders(ctx context.Context, vendorID *uuid.UUID, statuses ...enums.OrderStatus) (int64, error)
	InvoiceAmounts(ctx context.Context, vendorID *uuid.UUID, column string, statuses ...enums.InvoiceStatus) ([]decimal.Decimal, error)
	MostRented(ctx context.Context, vendorID *uuid.UUID, statuses []enums.OrderStatus, limit int) ([]TopProduct, error)
	LowStock(ctx context.Context, vendorID *uuid.UUID, threshold, limit int) ([]LowStockProduct, error)
	RecentOrders(ctx context.Context, vendorID *uuid.UUID, limit int) ([]RecentOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the reports repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountProducts(ctx context.Context, vendorID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *repository) CountOrders(ctx context.Context, vendorID *uuid.UUID, statuses ...enums.OrderStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.RentalOrder{})
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Count(&count).Error
	return count, err
}

// InvoiceAmounts plucks one money column so the caller can sum it exactly.
func (r *repository) InvoiceAmounts(ctx context.Context, vendorID *uuid.UUID, column string, statuses ...enums.InvoiceStatus) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	query := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Joins("JOIN rental_orders ON rental_orders.id = invoices.order_id")
	if vendorID != nil {
		query = query.Where("rental_orders.vendor_id = ?", *vendorID)
	}
	if len(statuses) > 0 {
		query = query.Where("invoices.status IN ?", statuses)
	}
	err := query.Pluck("invoices."+column, &amounts).Error
	return amounts, err
}

func (r *repository) MostRented(ctx context.Context, vendorID *uuid.UUID, statuses []enums.OrderStatus, limit int) ([]TopProduct, error) {
	var rows []struct {
		ProductID   uuid.UUID
		ProductName string
		Quantity    int64
		Orders      int64
	}
	query := r.db.WithContext(ctx).
		Table("order_lines").
		Select("order_lines.product_id AS product_id, products.name AS product_name, SUM(order_lines.quantity) AS quantity, COUNT(DISTINCT order_lines.order_id) AS orders").
		Joins("JOIN rental_orders ON rental_orders.id = order_lines.order_id").
		Joins("JOIN products ON products.id = order_lines.product_id").
		Where("rental_orders.status IN ?", statuses)
	if vendorID != nil {
		query = query.Where("rental_orders.vendor_id = ?", *vendorID)
	}
	err := query.
		Group("order_lines.product_id, products.name").
		Order("quantity DESC").
		Order("products.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]TopProduct, len(rows))
	for i, row := range rows {
		out[i] = TopProduct{ProductID: row.ProductID, ProductName: row.ProductName, Quantity: row.Quantity, Orders: row.Orders}
	}
	return out, nil
}

func (r *repository) LowStock(ctx context.Context, vendorID *uuid.UUID, threshold, limit int) ([]LowStockProduct, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).
		Select("id", "name", "quantity_on_hand").
		Where("quantity_on_hand <= ?", threshold)
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	if err := query.Order("quantity_on_hand ASC").Order("name ASC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make([]LowStockProduct, len(products))
	for i, p := range products {
		out[i] = LowStockProduct{ProductID: p.ID, ProductName: p.Name, QuantityOnHand: p.QuantityOnHand}
	}
	return out, nil
}

func (r *repository) RecentOrders(ctx context.Context, vendorID *uuid.UUID, limit int) ([]RecentOrder, error) {
	var orders []models.RentalOrder
	query := r.db.WithContext(ctx).Select("id", "order_number", "status", "created_at")
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	out := make([]RecentOrder, len(orders))
	for i, o := range orders {
		out[i] = RecentOrder{OrderID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, CreatedAt: o.CreatedAt}
	}
	return out, nil
}
