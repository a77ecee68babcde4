package repositories

import (
	"errors"
	"fmt"
	"time"

	"mercado/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user into the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetByLogin retrieves a user whose username or email matches the given value.
func (r *GORMUserRepository) GetByLogin(usernameOrEmail string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "username = ? OR email = ?", usernameOrEmail, usernameOrEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", usernameOrEmail, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by login %s: %w", usernameOrEmail, err)
	}
	return &user, nil
}

// FindConflicts returns every user already holding one of the unique fields.
func (r *GORMUserRepository) FindConflicts(username, email, nationalID string) ([]models.User, error) {
	var users []models.User
	err := r.db.Find(&users, "username = ? OR email = ? OR national_id = ?", username, email, nationalID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return users, nil
}

// GetAll retrieves all users from the database.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// Update applies the given column values to the user row.
func (r *GORMUserRepository) Update(id string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes a user by their ID.
func (r *GORMUserRepository) Delete(id string) error {
	res := r.db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendOrderID pushes an order id onto the user's order list.
func (r *GORMUserRepository) AppendOrderID(userID, orderID string) (int64, error) {
	var modified int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		user.OrderIDs = append(user.OrderIDs, orderID)
		res := tx.Model(&user).Select("order_ids").Updates(&user)
		if res.Error != nil {
			return res.Error
		}
		modified = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append order %s to user %s: %w", orderID, userID, err)
	}
	return modified, nil
}

// RemoveOrderID pulls an order id from the user's order list.
func (r *GORMUserRepository) RemoveOrderID(userID, orderID string) (int64, error) {
	var modified int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		kept := make([]string, 0, len(user.OrderIDs))
		for _, id := range user.OrderIDs {
			if id != orderID {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(user.OrderIDs) {
			return nil
		}
		user.OrderIDs = kept
		res := tx.Model(&user).Select("order_ids").Updates(&user)
		if res.Error != nil {
			return res.Error
		}
		modified = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove order %s from user %s: %w", orderID, userID, err)
	}
	return modified, nil
}

// SetLoginState persists the failed-login counter and lockout expiry.
func (r *GORMUserRepository) SetLoginState(id string, failedLogins int, lockedUntil *time.Time) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"failed_logins": failedLogins,
		"locked_until":  lockedUntil,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update login state for user %s: %w", id, res.Error)
	}
	return nil
}
