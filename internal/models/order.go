package models

import "gorm.io/gorm"

// OrderItem is a single {product, quantity} pair within an order. No price
// is stored with the item: order totals are always computed from the current
// product rows at read time.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order represents a customer order. The buyer and every product referenced
// by the item list must exist when the order is created.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID    string      `json:"buyer_id" gorm:"type:varchar(36);index"`
	Items      []OrderItem `json:"items" gorm:"serializer:json;type:text"`
	gorm.Model             // CreatedAt, UpdatedAt, DeletedAt
}
