package auth

import (
	"github.com/rentease/rentease-backend/internal/users"
	"github.com/rentease/rentease-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token and its paired refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterRequest is the self-service signup payload. Admin accounts cannot be created this way.
type RegisterRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=150"`
	LastName    string     `json:"last_name" validate:"required,max=150"`
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required"`
	Role        enums.Role `json:"role" validate:"omitempty,oneof=customer vendor"`
	CompanyName string     `json:"company_name,omitempty" validate:"max=200"`
	GSTIN       string     `json:"gstin,omitempty" validate:"omitempty,len=15,alphanum"`
	Phone       string     `json:"phone,omitempty" validate:"max=15"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty" validate:"max=100"`
	State       string     `json:"state,omitempty" validate:"max=100"`
	Pincode     string     `json:"pincode,omitempty" validate:"max=10"`
}

// TokenResponse contains the tokens and user produced by login, signup or refresh.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
