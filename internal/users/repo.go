package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/db/models"
)

// Repository persists accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	return user, r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail matches on the trimmed, lowercased address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setColumns(ctx, id, map[string]any{"last_login_at": at})
}

// UpdatePasswordHash replaces the stored credential after a parameter upgrade.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumns(ctx, id, map[string]any{"password_hash": hash})
}

// UpdateProfile writes the given profile columns; an empty map is a no-op.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// setColumns skips hooks and updated_at so login bookkeeping does not look like a profile edit.
func (r *Repository) setColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(columns).Error
}
