package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/pagination"
)

// Repository defines persistence operations for rental orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.RentalOrder) error
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	OrderNumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
	List(ctx context.Context, query ListQuery) ([]models.RentalOrder, error)
	ListOut(ctx context.Context, vendorID *uuid.UUID) ([]models.RentalOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, confirmedAt *time.Time) error
}

// ListQuery narrows an order listing. Nil fields are not filtered.
type ListQuery struct {
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
	Status     *enums.OrderStatus
	Pagination pagination.Params
}
