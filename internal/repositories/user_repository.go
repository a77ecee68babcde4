package repositories

import (
	"time"

	"mercado/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	// GetByLogin resolves a user by username or email, whichever matches.
	GetByLogin(usernameOrEmail string) (*models.User, error)
	// FindConflicts returns every user holding any of the given unique fields.
	FindConflicts(username, email, nationalID string) ([]models.User, error)
	GetAll() ([]models.User, error)
	// Update applies the given column values and reports how many rows changed.
	Update(id string, fields map[string]interface{}) (int64, error)
	Delete(id string) error
	// AppendOrderID pushes an order id onto the user's order list and reports
	// how many rows were modified (zero when the user does not exist).
	AppendOrderID(userID, orderID string) (int64, error)
	// RemoveOrderID pulls an order id from the user's order list and reports
	// how many rows were modified (zero when the user or the id is absent).
	RemoveOrderID(userID, orderID string) (int64, error)
	// SetLoginState persists the failed-login counter and lockout expiry.
	SetLoginState(id string, failedLogins int, lockedUntil *time.Time) error
}
