package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
)

type DocumentHandler struct {
	uploadService services.UploadService
	extractor     services.DocumentExtractor
}

func NewDocumentHandler(
	uploadService services.UploadService,
	extractor services.DocumentExtractor,
) *DocumentHandler {
	return &DocumentHandler{
		uploadService: uploadService,
		extractor:     extractor,
	}
}

// HandleExtract handles POST /documents/extract
func (h *DocumentHandler) HandleExtract(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Upload a single file in the 'file' field",
			"kind":  "validation_failed",
		})
	}

	doc, err := h.uploadService.ReadDocument(file)
	if err != nil {
		return respondError(c, err)
	}

	text, err := h.extractor.Extract(doc)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.ExtractResponse{
		Name: doc.Name,
		Kind: doc.Kind,
		Text: text,
	})
}
