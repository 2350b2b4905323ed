package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/service/scheduler"
	"github.com/seu-repo/voicebridge/internal/service/uistate"
)

// UIStateHandler receives the host's compact snapshot pushes and
// navigation/visibility triggers.
type UIStateHandler struct {
	registry  *uistate.Registry
	scheduler *scheduler.Scheduler
	log       *zap.Logger
}

func NewUIStateHandler(registry *uistate.Registry, sched *scheduler.Scheduler, log *zap.Logger) *UIStateHandler {
	return &UIStateHandler{
		registry:  registry,
		scheduler: sched,
		log:       log,
	}
}

// Push handles POST /api/v1/ui/state
func (h *UIStateHandler) Push(c *fiber.Ctx) error {
	var state domain.UiState
	if err := c.BodyParser(&state); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid snapshot"})
	}

	h.registry.Update(state)
	return c.SendStatus(fiber.StatusAccepted)
}

// RouteChange handles POST /api/v1/ui/events/route-change
func (h *UIStateHandler) RouteChange(c *fiber.Ctx) error {
	h.scheduler.NotifyRouteChange()
	return c.SendStatus(fiber.StatusAccepted)
}

// Visibility handles POST /api/v1/ui/events/visibility
func (h *UIStateHandler) Visibility(c *fiber.Ctx) error {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	// Only the transition back to visible warrants a fresh sync.
	if req.Visible {
		h.scheduler.NotifyVisible()
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Current handles GET /api/v1/ui/state, mainly for debugging hosts.
func (h *UIStateHandler) Current(c *fiber.Ctx) error {
	return c.JSON(h.registry.CompactUiState())
}
