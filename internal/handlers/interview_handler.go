package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-coach/internal/middleware"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
)

type InterviewHandler struct {
	store         *services.InterviewStore
	uploadService services.UploadService
}

func NewInterviewHandler(store *services.InterviewStore, uploadService services.UploadService) *InterviewHandler {
	return &InterviewHandler{
		store:         store,
		uploadService: uploadService,
	}
}

func (h *InterviewHandler) session(c *fiber.Ctx) *services.InterviewSession {
	return h.store.Get(middleware.CurrentIdentity(c).UserID)
}

// HandleGet handles GET /interview
func (h *InterviewHandler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(h.session(c).Snapshot())
}

// HandleStart handles POST /interview/start
func (h *InterviewHandler) HandleStart(c *fiber.Ctx) error {
	var req models.StartInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
			"kind":  "validation_failed",
		})
	}

	snapshot, err := h.session(c).Start(c.UserContext(), req.TargetRole, req.Speak)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(snapshot)
}

// HandleMessage handles POST /interview/messages
func (h *InterviewHandler) HandleMessage(c *fiber.Ctx) error {
	var req models.InterviewMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
			"kind":  "validation_failed",
		})
	}

	snapshot, err := h.session(c).Submit(c.UserContext(), req.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(snapshot)
}

// HandleReset handles DELETE /interview
func (h *InterviewHandler) HandleReset(c *fiber.Ctx) error {
	return c.JSON(h.session(c).Reset())
}

// HandleAudio handles GET /interview/audio. It waits for synthesis of the
// latest assistant turn to finish.
func (h *InterviewHandler) HandleAudio(c *fiber.Ctx) error {
	playback := h.session(c).CurrentPlayback()
	if playback == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Nothing is being spoken",
			"kind":  "not_found",
		})
	}

	select {
	case <-playback.Done():
	case <-c.UserContext().Done():
		return c.SendStatus(fiber.StatusRequestTimeout)
	}

	audio := playback.Audio()
	if audio == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Speech playback was cancelled or failed",
			"kind":  "not_found",
		})
	}

	c.Set(fiber.HeaderContentType, audio.MIMEType)
	return c.Send(audio.Data)
}

// HandleTranscribe handles POST /interview/transcribe
func (h *InterviewHandler) HandleTranscribe(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Upload the recording in the 'audio' field",
			"kind":  "validation_failed",
		})
	}

	data, mimeType, err := h.uploadService.ReadAudio(file)
	if err != nil {
		return respondError(c, err)
	}

	capture, err := h.session(c).Listen(c.UserContext(), data, mimeType)
	if err != nil {
		return respondError(c, err)
	}

	response := models.TranscriptionResponse{Partials: []string{}}
	for partial := range capture.Transcripts() {
		response.Partials = append(response.Partials, partial)
		response.Transcript = partial
	}

	if err := capture.Err(); err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}
