package models

import "time"

// SystemSetting is a key/value override for business defaults.
type SystemSetting struct {
	Key         string    `gorm:"column:key;primaryKey"`
	Value       string    `gorm:"column:value;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
