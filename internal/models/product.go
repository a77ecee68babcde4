package models

import "gorm.io/gorm"

// Product represents a product available for ordering. Names are stored
// trimmed and uppercased so the unique index catches case variants.
type Product struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string  `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Price      float64 `json:"price" validate:"gte=0"`
	Stock      int     `json:"stock" validate:"gte=0"`
	ImageURL   string  `json:"image_url" validate:"omitempty,max=500"`
	gorm.Model         // CreatedAt, UpdatedAt, DeletedAt
}
