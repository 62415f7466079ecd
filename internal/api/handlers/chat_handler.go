package handlers

import (
	"errors"

	"kinto/internal/dto"
	"kinto/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	engine *service.Engine
	logger *zap.Logger
}

func NewChatHandler(engine *service.Engine, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		logger: logger,
	}
}

// Chat godoc
// @Summary Ask a career support question
// @Description Runs the full answer pipeline and always returns a well-formed response; low confidence degrades into the fallback answer with talk_to_human set.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat request"
// @Success 200 {object} dto.KintoResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// The session-linking provider is authoritative for identity and
	// authorization level; client-supplied context never grants them.
	if userID, ok := c.Locals("userID").(string); ok && userID != "" {
		req.Context.UserID = userID
	} else {
		req.Context.UserID = ""
	}
	if role, ok := c.Locals("role").(string); ok {
		req.Context.Role = role
	} else {
		req.Context.Role = ""
	}

	resp, err := h.engine.HandleChat(c.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message must be non-empty text",
			})
		}
		h.logger.Error("Chat handling failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Chat handling failed",
		})
	}

	return c.JSON(resp)
}
