package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Repository persists system_settings rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns every stored setting ordered by key.
func (r *Repository) List(ctx context.Context) ([]models.SystemSetting, error) {
	var rows []models.SystemSetting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes the value for key, replacing any previous value.
func (r *Repository) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(setting).Error
}
