package handler

import (
	"strconv"

	"cafe-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxMovementDays = 365

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	daysStr := c.Query("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		days = 7
	}
	if days > maxMovementDays {
		days = maxMovementDays
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboard returns overview statistics
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.GetDashboard(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dashboard)
}
