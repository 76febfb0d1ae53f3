package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Inventory *InventoryHandler
	User      *UserHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes mounts the JSON API under /api/v1. requireAuth guards every
// route except sign-up and login.
func RegisterRoutes(app *fiber.App, h Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard
	protected.Get("/dashboard", h.Dashboard.GetDashboard)
	protected.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)

	// Products
	protected.Get("/products", h.Inventory.GetProducts)
	protected.Get("/products/:id", h.Inventory.GetProduct)
	protected.Post("/products", h.Inventory.CreateProduct)
	protected.Put("/products/:id", h.Inventory.UpdateProduct)
	protected.Delete("/products/:id", h.Inventory.DeleteProduct)
	protected.Post("/products/:id/stock", h.Inventory.AdjustStock)
	protected.Get("/products/:id/transactions", h.Inventory.GetProductTransactions)

	// Ledger
	protected.Get("/transactions", h.Inventory.GetTransactions)

	// Users
	protected.Get("/users", h.User.GetUsers)
	protected.Get("/users/:idNumber", h.User.GetUser)
	protected.Post("/users", h.User.CreateUser)
	protected.Put("/users/:idNumber", h.User.UpdateUser)
	protected.Delete("/users/:idNumber", h.User.DeleteUser)
}
