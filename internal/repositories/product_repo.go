package repositories

import (
	"mercado/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// GetByIDs fetches every product whose id is in the given set.
	// Missing ids are simply absent from the result, not an error.
	GetByIDs(ids []string) ([]models.Product, error)
	GetByName(name string) (*models.Product, error)
	Create(product *models.Product) error
	// Update applies the given column values and reports how many rows changed.
	Update(id string, fields map[string]interface{}) (int64, error)
	Delete(id string) error
}
