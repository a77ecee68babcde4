package handlers

import (
	"errors"
	"log"

	"mercado/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers()
	if err != nil {
		log.Printf("Error getting all users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Users retrieved successfully",
		"content": users,
	})
}

// HandleGetUserByID retrieves a single user by their ID.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	userID := c.Params("id")
	if uuid.Validate(userID) != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id format",
		})
	}

	user, err := h.service.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		log.Printf("Error getting user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve user",
		})
	}
	return c.JSON(fiber.Map{
		"message": "User retrieved successfully",
		"content": user,
	})
}

// UpdateUserRequest represents the request body for a user update. Only the
// fields present in the body are applied.
type UpdateUserRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	NationalID *string `json:"national_id"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
}

// HandleUpdateUser applies a partial update to a user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if uuid.Validate(userID) != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id format",
		})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	fields := make(map[string]interface{})
	setIfPresent(fields, "username", req.Username)
	setIfPresent(fields, "email", req.Email)
	setIfPresent(fields, "national_id", req.NationalID)
	setIfPresent(fields, "first_name", req.FirstName)
	setIfPresent(fields, "last_name", req.LastName)
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No updatable fields in request",
		})
	}

	user, err := h.service.UpdateUser(userID, fields)
	if err != nil {
		if errors.Is(err, services.ErrNothingUpdated) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "No user fields were updated",
			})
		}
		log.Printf("Error updating user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update user",
		})
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"content": user,
	})
}

// HandleDeleteUser deletes a user and every order they placed.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if uuid.Validate(userID) != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id format",
		})
	}

	if err := h.service.DeleteUser(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		log.Printf("Error deleting user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete user",
		})
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

func setIfPresent(fields map[string]interface{}, column string, value *string) {
	if value != nil && *value != "" {
		fields[column] = *value
	}
}
