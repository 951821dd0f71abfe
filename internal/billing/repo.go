package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Repository handles invoice and payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	SaveAmounts(ctx context.Context, invoice *models.Invoice) error
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	LockByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.RentalOrder, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Omit("Payments").Create(invoice).Error
}

// SaveAmounts persists the derived money fields and status.
func (r *repository) SaveAmounts(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"status":           invoice.Status,
			"subtotal":         invoice.Subtotal,
			"discount_amount":  invoice.DiscountAmount,
			"tax_rate":         invoice.TaxRate,
			"tax_amount":       invoice.TaxAmount,
			"security_deposit": invoice.SecurityDeposit,
			"late_fee":         invoice.LateFee,
			"total_amount":     invoice.TotalAmount,
			"amount_paid":      invoice.AmountPaid,
			"paid_at":          invoice.PaidAt,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *repository) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("invoice_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) LockByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Where("order_id = ?", orderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindOrder loads the order with everything the invoice document prints.
func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Lines.Product").
		Preload("Customer").
		Preload("Vendor").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Select("amount").
		Where("invoice_id = ?", invoiceID).
		Find(&payments).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}
