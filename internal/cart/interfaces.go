package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart and checkout services.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreateDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error)
	FindDraft(ctx context.Context, customerID uuid.UUID) (*models.Quotation, error)
	AddLine(ctx context.Context, line *models.QuotationLine) error
	DeleteLine(ctx context.Context, quotationID, lineID uuid.UUID) (bool, error)
	SetCouponCode(ctx context.Context, quotationID uuid.UUID, code *string) error
	MarkConfirmed(ctx context.Context, quotationID uuid.UUID, orderID uuid.UUID) error
}
