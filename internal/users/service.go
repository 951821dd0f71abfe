package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

// Service exposes profile reads and updates for the signed-in user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input ProfileUpdate) (*UserDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds the profile service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, input ProfileUpdate) (*UserDTO, error) {
	if err := s.repo.UpdateProfile(ctx, userID, input.Columns()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Get(ctx, userID)
}
