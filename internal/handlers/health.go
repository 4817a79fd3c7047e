package handlers

import (
	"github.com/gofiber/fiber/v2"

	"noxy/internal/vectorstore"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	store *vectorstore.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *vectorstore.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Home is the root banner
// GET /
func (h *HealthHandler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Noxy API is running",
	})
}

// Handle reports health plus the size of the knowledge index
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	chunks, err := h.store.Count(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  "vector index unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"indexed_chunks": chunks,
	})
}
