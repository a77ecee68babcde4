package repositories

import (
	"mercado/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Delete(id string) error
	// DeleteByIDs removes every order in the given id set and reports how
	// many rows were deleted. Used when a user account is removed.
	DeleteByIDs(ids []string) (int64, error)
}
