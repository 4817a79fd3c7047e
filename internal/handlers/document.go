package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"noxy/internal/document"
	"noxy/internal/models"
	"noxy/internal/services"
)

// DocumentHandler handles knowledge-base document management
type DocumentHandler struct {
	injector *document.Injector
	metrics  *services.Metrics
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(injector *document.Injector, metrics *services.Metrics) *DocumentHandler {
	return &DocumentHandler{injector: injector, metrics: metrics}
}

// Upload downloads a knowledge document and injects it into the vector index
// POST /upload-document
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	var req models.UploadDocumentRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.JSON(models.InjectResult{
			Success: false,
			Message: "Invalid request: 'url' must be a non-empty string",
		})
	}

	result := h.injector.Inject(c.Context(), req.URL)
	if result.Success && h.metrics != nil {
		h.metrics.DocumentsIngested.Add(float64(result.DocumentsAdded))
	}
	if !result.Success {
		log.Printf("⚠️  [DOCUMENT] Upload failed for %s: %s", req.URL, result.Message)
	}

	return c.JSON(result)
}

// Delete removes a previously uploaded document by its original URL
// POST /delete-document
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	var req models.DeleteDocumentRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.JSON(models.DeleteResult{
			Success: false,
			Message: "Invalid request: 'url' must be a non-empty string",
		})
	}

	return c.JSON(h.injector.Delete(c.Context(), req.URL))
}

// Update replaces an indexed document with a new version
// POST /update-document
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateDocumentRequest
	if err := c.BodyParser(&req); err != nil || req.OldURL == "" {
		return c.JSON(models.UpdateResult{
			Success: false,
			Message: "Invalid request: 'old_url' must be a non-empty string",
		})
	}
	if req.NewURL == "" {
		return c.JSON(models.UpdateResult{
			Success: false,
			Message: "Invalid request: 'new_url' must be a non-empty string",
		})
	}

	result := h.injector.Update(c.Context(), req.OldURL, req.NewURL)
	if result.Success && h.metrics != nil {
		h.metrics.DocumentsIngested.Add(float64(result.DocumentsAdded))
	}

	return c.JSON(result)
}
