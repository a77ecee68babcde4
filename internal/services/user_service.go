package services

import (
	"errors"
	"fmt"
	"strings"

	"mercado/internal/models"
	"mercado/internal/repositories"
)

// UserView is a user as presented to clients. Credentials and lockout state
// never leave the service layer.
type UserView struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	OrderIDs []string `json:"order_ids"`
}

// UserService handles user account management.
type UserService struct {
	userRepo  repositories.UserRepository
	orderRepo repositories.OrderRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo repositories.UserRepository, orderRepo repositories.OrderRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

// GetAllUsers returns every registered user.
func (s *UserService) GetAllUsers() ([]UserView, error) {
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, buildUserView(&users[i]))
	}
	return views, nil
}

// GetUserByID returns a single user.
func (s *UserService) GetUserByID(id string) (*UserView, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	view := buildUserView(user)
	return &view, nil
}

// UpdateUser applies the given field values and returns the updated user.
// ErrNothingUpdated is returned when no row was modified.
func (s *UserService) UpdateUser(id string, fields map[string]interface{}) (*UserView, error) {
	modified, err := s.userRepo.Update(id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if modified == 0 {
		return nil, ErrNothingUpdated
	}

	return s.GetUserByID(id)
}

// DeleteUser removes a user together with every order on their order list.
func (s *UserService) DeleteUser(id string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if len(user.OrderIDs) > 0 {
		if _, err := s.orderRepo.DeleteByIDs(user.OrderIDs); err != nil {
			return fmt.Errorf("failed to delete orders for user %s: %w", id, err)
		}
	}

	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func buildUserView(user *models.User) UserView {
	return UserView{
		ID:       user.ID,
		Username: user.Username,
		FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		Email:    user.Email,
		OrderIDs: user.OrderIDs,
	}
}
