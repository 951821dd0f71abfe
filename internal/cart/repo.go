package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreateDraft relies on the one-draft-per-customer partial unique index: a losing
// concurrent insert does nothing and both callers read the same row back.
func (r *repository) GetOrCreateDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error) {
	candidate := &models.Quotation{CustomerID: customerID, Status: enums.QuotationStatusDraft}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(candidate).Error; err != nil {
		return nil, err
	}
	return r.FindDraft(ctx, customerID)
}

// FindDraft loads the customer's draft with its lines, products and variants.
func (r *repository) FindDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Lines.Product").
		Preload("Lines.Variant").
		Where("customer_id = ? AND status = ?", customerID, enums.QuotationStatusDraft).
		First(&quotation).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *repository) AddLine(ctx context.Context, line *models.QuotationLine) error {
	return r.db.WithContext(ctx).Omit("Product", "Variant").Create(line).Error
}

func (r *repository) DeleteLine(ctx context.Context, quotationID, lineID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND quotation_id = ?", lineID, quotationID).
		Delete(&models.QuotationLine{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetCouponCode(ctx context.Context, quotationID uuid.UUID, code *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ?", quotationID).
		Update("coupon_code", code).Error
}

func (r *repository) MarkConfirmed(ctx context.Context, quotationID uuid.UUID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ?", quotationID).
		Updates(map[string]any{
			"status":   enums.QuotationStatusConfirmed,
			"order_id": orderID,
		}).Error
}
