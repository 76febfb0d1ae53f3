package handler

import (
	"cafe-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.CreateUser(c.UserContext(), &req, actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user.ToResponse(),
	})
}

// GetUsers handles GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/v1/users/:idNumber
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.userService.GetUser(c.UserContext(), c.Params("idNumber"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/v1/users/:idNumber
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.UpdateUser(c.UserContext(), c.Params("idNumber"), &req, actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user.ToResponse(),
	})
}

// DeleteUser handles DELETE /api/v1/users/:idNumber
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.UserContext(), c.Params("idNumber")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
