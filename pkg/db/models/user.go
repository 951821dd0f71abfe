package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// User is an account holder. Vendors and admins share the table with customers.
type User struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash   string     `gorm:"column:password_hash;not null"`
	FirstName      string     `gorm:"column:first_name;not null"`
	LastName       string     `gorm:"column:last_name;not null"`
	Role           enums.Role `gorm:"column:role;type:text;not null;default:'customer'"`
	CompanyName    string     `gorm:"column:company_name;not null;default:''"`
	GSTIN          string     `gorm:"column:gstin;not null;default:''"`
	Phone          string     `gorm:"column:phone;not null;default:''"`
	Address        string     `gorm:"column:address;not null;default:''"`
	City           string     `gorm:"column:city;not null;default:''"`
	State          string     `gorm:"column:state;not null;default:''"`
	Pincode        string     `gorm:"column:pincode;not null;default:''"`
	CompanyLogoURL *string    `gorm:"column:company_logo_url"`
	IsActive       bool       `gorm:"column:is_active;not null"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
