package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           enums.Role `json:"role"`
	CompanyName    string     `json:"company_name,omitempty"`
	GSTIN          string     `json:"gstin,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	Pincode        string     `json:"pincode,omitempty"`
	CompanyLogoURL *string    `json:"company_logo_url,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.Role
	CompanyName  string
	GSTIN        string
	Phone        string
	Address      string
	City         string
	State        string
	Pincode      string
}

// ProfileUpdate carries optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName      *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=150"`
	LastName       *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=150"`
	CompanyName    *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	GSTIN          *string `json:"gstin,omitempty" validate:"omitempty,len=15,alphanum"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=15"`
	Address        *string `json:"address,omitempty"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State          *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Pincode        *string `json:"pincode,omitempty" validate:"omitempty,max=10"`
	CompanyLogoURL *string `json:"company_logo_url,omitempty" validate:"omitempty,url"`
}

// Columns maps the set fields to their column names.
func (p ProfileUpdate) Columns() map[string]any {
	updates := map[string]any{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("company_name", p.CompanyName)
	set("gstin", p.GSTIN)
	set("phone", p.Phone)
	set("address", p.Address)
	set("city", p.City)
	set("state", p.State)
	set("pincode", p.Pincode)
	set("company_logo_url", p.CompanyLogoURL)
	return updates
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		CompanyName:    u.CompanyName,
		GSTIN:          u.GSTIN,
		Phone:          u.Phone,
		Address:        u.Address,
		City:           u.City,
		State:          u.State,
		Pincode:        u.Pincode,
		CompanyLogoURL: u.CompanyLogoURL,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		CompanyName:  c.CompanyName,
		GSTIN:        c.GSTIN,
		Phone:        c.Phone,
		Address:      c.Address,
		City:         c.City,
		State:        c.State,
		Pincode:      c.Pincode,
		IsActive:     true,
	}
}
