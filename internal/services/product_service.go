package services

import (
	"errors"
	"fmt"
	"strings"

	"mercado/internal/models"
	"mercado/internal/repositories"
)

// ProductService handles the product catalog. Product names are stored
// trimmed and upper-cased so that lookups and the uniqueness rule are
// case-insensitive.
type ProductService struct {
	productRepo     repositories.ProductRepository
	defaultImageURL string
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repositories.ProductRepository, defaultImageURL string) *ProductService {
	return &ProductService{
		productRepo:     productRepo,
		defaultImageURL: defaultImageURL,
	}
}

// GetAllProducts returns every product in the catalog.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	products, err := s.productRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// GetProductByID returns a single product.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog. The normalized name must be
// unused and a missing image falls back to the configured default.
func (s *ProductService) CreateProduct(product *models.Product) error {
	product.Name = normalizeProductName(product.Name)

	existing, err := s.productRepo.GetByName(product.Name)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if existing != nil {
		return ErrDuplicateProduct
	}

	if product.ImageURL == "" {
		product.ImageURL = s.defaultImageURL
	}

	if err := s.productRepo.Create(product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct applies the given field values and returns the updated
// product. ErrNothingUpdated is returned when no row was modified.
func (s *ProductService) UpdateProduct(id string, fields map[string]interface{}) (*models.Product, error) {
	if name, ok := fields["name"].(string); ok {
		normalized := normalizeProductName(name)
		existing, err := s.productRepo.GetByName(normalized)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check existing products: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrDuplicateProduct
		}
		fields["name"] = normalized
	}

	modified, err := s.productRepo.Update(id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if modified == 0 {
		return nil, ErrNothingUpdated
	}

	return s.GetProductByID(id)
}

// DeleteProduct removes a product from the catalog.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func normalizeProductName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
