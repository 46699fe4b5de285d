package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-coach/internal/middleware"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
)

type ResultHandler struct {
	scoringService services.ScoringService
}

func NewResultHandler(scoringService services.ScoringService) *ResultHandler {
	return &ResultHandler{
		scoringService: scoringService,
	}
}

// HandleGetLatest handles GET /analyses/latest
func (h *ResultHandler) HandleGetLatest(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)

	view, err := h.scoringService.View(identity.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(view)
}

// HandleGetResult handles GET /analyses/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	analysisID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
			"kind":  "validation_failed",
		})
	}

	identity := middleware.CurrentIdentity(c)

	analysis, err := h.scoringService.Find(identity.UserID, analysisID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.NewAnalysisResponse(analysis))
}
