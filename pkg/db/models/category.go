package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products for browsing.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null;default:''"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

// Slugify lowercases the input and collapses every run of non alphanumerics into one dash.
func Slugify(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ProductAttribute names a dimension such as Brand or Color.
type ProductAttribute struct {
	ID     uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name   string           `gorm:"column:name;not null;uniqueIndex"`
	Values []AttributeValue `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
}

func (a *ProductAttribute) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// AttributeValue is one value of an attribute. (attribute_id, value) is unique.
type AttributeValue struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AttributeID uuid.UUID         `gorm:"column:attribute_id;type:uuid;not null"`
	Value       string            `gorm:"column:value;not null"`
	Attribute   *ProductAttribute `gorm:"foreignKey:AttributeID"`
}

func (v *AttributeValue) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
