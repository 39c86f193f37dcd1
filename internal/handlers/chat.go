package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/services"
)

// ChatHandler handles conversational turns
type ChatHandler struct {
	dialogue *services.DialogueService
	logger   *logrus.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(dialogue *services.DialogueService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{dialogue: dialogue, logger: logger}
}

// Chat processes one user message and returns the assistant reply along
// with the session id and booking state
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	result, err := h.dialogue.HandleTurn(c.UserContext(), req.SessionID, req.Message)
	if err != nil {
		h.logger.WithError(err).Error("failed to process turn")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(fiber.Map{
		"response":         result.Reply,
		"session_id":       result.SessionID,
		"intent":           result.Intent,
		"booking_state":    result.BookingState,
		"appointment_data": result.Slots,
	})
}
