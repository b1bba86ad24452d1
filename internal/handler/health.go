package handler

import (
	"github.com/gofiber/fiber/v2"

	"collabboard/internal/board"
)

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	hub *board.Hub
}

// NewHealthHandler HealthHandler 생성
func NewHealthHandler(hub *board.Hub) *HealthHandler {
	return &HealthHandler{hub: hub}
}

// Health liveness plus hub totals.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	rooms, conns := h.hub.Stats()
	return c.JSON(fiber.Map{
		"status":      "ok",
		"rooms":       rooms,
		"connections": conns,
	})
}
