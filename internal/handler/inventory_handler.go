package handler

import (
	"cafe-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// CreateProduct handles POST /api/v1/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), req, actor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// UpdateProduct handles PUT /api/v1/products/:id. Every field is replaced.
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), id, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// AdjustStock handles POST /api/v1/products/:id/stock
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.StockAdjustment
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	updated, err := h.service.AdjustStock(c.UserContext(), id, req, actor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.ListTransactions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// GetProductTransactions returns the ledger of one product, also after it was deleted.
func (h *InventoryHandler) GetProductTransactions(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	transactions, err := h.service.ListProductTransactions(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}
