package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered buyer.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string     `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email        string     `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	NationalID   string     `json:"national_id" gorm:"uniqueIndex;type:varchar(20)"`
	Password     string     `json:"-" gorm:"type:varchar(255)"`
	FirstName    string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName     string     `json:"last_name" gorm:"type:varchar(100)"`
	BirthDate    time.Time  `json:"birth_date"`
	OrderIDs     []string   `json:"order_ids" gorm:"serializer:json;type:text"`
	FailedLogins int        `json:"-" gorm:"default:0"`
	LockedUntil  *time.Time `json:"-"`
	gorm.Model              // CreatedAt, UpdatedAt, DeletedAt
}
