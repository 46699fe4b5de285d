package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-coach/internal/middleware"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
)

type AnalysisHandler struct {
	scoringService services.ScoringService
	worker         services.Worker
}

func NewAnalysisHandler(
	scoringService services.ScoringService,
	worker services.Worker,
) *AnalysisHandler {
	return &AnalysisHandler{
		scoringService: scoringService,
		worker:         worker,
	}
}

// HandleSubmit handles POST /analyses
func (h *AnalysisHandler) HandleSubmit(c *fiber.Ctx) error {
	var req models.AnalysisRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
			"kind":  "validation_failed",
		})
	}

	identity := middleware.CurrentIdentity(c)

	analysis, err := h.scoringService.Submit(c.UserContext(), identity.UserID, req)
	if err != nil {
		return respondError(c, err)
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitAnalysisResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	})
}
