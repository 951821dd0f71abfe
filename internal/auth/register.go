package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/users"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/security"
)

// RegisterService creates customer and vendor accounts and signs them in.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &registerService{
		db:          params.DB,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := req.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	if !role.SelfService() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or vendor")
	}
	if role == enums.RoleVendor && strings.TrimSpace(req.CompanyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required for vendors")
	}
	if err := security.CheckStrength(req.Password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	input := users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		CompanyName:  strings.TrimSpace(req.CompanyName),
		GSTIN:        strings.ToUpper(strings.TrimSpace(req.GSTIN)),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Pincode:      strings.TrimSpace(req.Pincode),
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err = userRepo.Create(ctx, input)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issueTokens(ctx, s.jwtCfg, s.session, created, time.Now().UTC())
}
