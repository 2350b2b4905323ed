package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/service/scheduler"
)

// VoiceHandler exposes transcript submission and the confirmation
// gate to the host application.
type VoiceHandler struct {
	scheduler *scheduler.Scheduler
	log       *zap.Logger
}

func NewVoiceHandler(sched *scheduler.Scheduler, log *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		scheduler: sched,
		log:       log,
	}
}

type TranscriptRequest struct {
	Transcript        string `json:"transcript"`
	Language          string `json:"language"`
	ConversationState string `json:"conversation_state"`
	ActiveCourseName  string `json:"active_course_name,omitempty"`
	ActiveSessionName string `json:"active_session_name,omitempty"`
}

// SubmitTranscript handles POST /api/v1/voice/transcript
func (h *VoiceHandler) SubmitTranscript(c *fiber.Ctx) error {
	var req TranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.Transcript == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "transcript is required"})
	}
	if req.Language == "" {
		req.Language = "en"
	}

	userID := c.Locals("user_id").(string)

	result, err := h.scheduler.SubmitTranscript(c.Context(), scheduler.TranscriptRequest{
		UserID:            userID,
		Transcript:        req.Transcript,
		Language:          req.Language,
		ConversationState: req.ConversationState,
		ActiveCourseName:  req.ActiveCourseName,
		ActiveSessionName: req.ActiveSessionName,
	})
	if err != nil {
		h.log.Error("Failed to process transcript", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Voice command failed"})
	}

	return c.JSON(result)
}

type ConfirmRequest struct {
	CorrelationID string `json:"correlation_id"`
	Accept        bool   `json:"accept"`
}

// Confirm handles POST /api/v1/voice/confirm
func (h *VoiceHandler) Confirm(c *fiber.Ctx) error {
	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.CorrelationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "correlation_id is required"})
	}

	result, err := h.scheduler.Confirm(c.Context(), req.CorrelationID, req.Accept)
	if err != nil {
		h.log.Warn("Confirmation not found",
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No pending confirmation"})
	}

	return c.JSON(result)
}
