package repositories

import (
	"fmt"
	"sync"
	"time"

	"mercado/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by their ID.
func (r *MemoryUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

// GetByLogin returns a user whose username or email matches the given value.
func (r *MemoryUserRepository) GetByLogin(usernameOrEmail string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == usernameOrEmail || user.Email == usernameOrEmail {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", usernameOrEmail, ErrNotFound)
}

// FindConflicts returns every user already holding one of the unique fields.
func (r *MemoryUserRepository) FindConflicts(username, email, nationalID string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conflicts []models.User
	for _, user := range r.users {
		if user.Username == username || user.Email == email || user.NationalID == nationalID {
			conflicts = append(conflicts, user)
		}
	}
	return conflicts, nil
}

// GetAll returns all users.
func (r *MemoryUserRepository) GetAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		userList = append(userList, user)
	}
	return userList, nil
}

// Update applies the given field values to the user.
func (r *MemoryUserRepository) Update(id string, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	for key, value := range fields {
		switch key {
		case "username":
			user.Username, _ = value.(string)
		case "email":
			user.Email, _ = value.(string)
		case "national_id":
			user.NationalID, _ = value.(string)
		case "first_name":
			user.FirstName, _ = value.(string)
		case "last_name":
			user.LastName, _ = value.(string)
		}
	}
	r.users[id] = user
	return 1, nil
}

// Delete removes a user by their ID.
func (r *MemoryUserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// AppendOrderID pushes an order id onto the user's order list.
func (r *MemoryUserRepository) AppendOrderID(userID, orderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, nil
	}
	user.OrderIDs = append(user.OrderIDs, orderID)
	r.users[userID] = user
	return 1, nil
}

// RemoveOrderID pulls an order id from the user's order list.
func (r *MemoryUserRepository) RemoveOrderID(userID, orderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return 0, nil
	}
	kept := make([]string, 0, len(user.OrderIDs))
	for _, id := range user.OrderIDs {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(user.OrderIDs) {
		return 0, nil
	}
	user.OrderIDs = kept
	r.users[userID] = user
	return 1, nil
}

// SetLoginState persists the failed-login counter and lockout expiry.
func (r *MemoryUserRepository) SetLoginState(id string, failedLogins int, lockedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user.FailedLogins = failedLogins
	user.LockedUntil = lockedUntil
	r.users[id] = user
	return nil
}
