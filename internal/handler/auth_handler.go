package handler

import (
	"cafe-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Username and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// Signup registers a new staff account and returns a token for it
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	response, err := h.authService.Signup(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(response)
}
