package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/service"
	"github.com/treytuscai/DevReady/internal/utils"
	"github.com/treytuscai/DevReady/pkg/ai"
)

// AssistantHandler exposes AI hints and complexity analysis.
type AssistantHandler struct {
	service service.AssistantService
	logger  zerolog.Logger
}

// NewAssistantHandler constructs an assistant handler.
func NewAssistantHandler(service service.AssistantService, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register wires assistant routes.
func (h *AssistantHandler) Register(router fiber.Router) {
	router.Post("/hint", h.hint)
	router.Post("/analyze", h.analyze)
}

func (h *AssistantHandler) hint(c *fiber.Ctx) error {
	var payload dto.AssistantRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Hint(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "hint generated", response)
}

func (h *AssistantHandler) analyze(c *fiber.Ctx) error {
	var payload dto.AssistantRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	analysis, err := h.service.Analyze(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "analysis generated", analysis)
}

func (h *AssistantHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, "Missing question description or code")
	case errors.Is(err, service.ErrAssistantUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "assistant is not configured")
	case errors.Is(err, ai.ErrInvalidAnalysis):
		requestLogger(h.logger, c).Warn().Err(err).Msg("unparseable complexity analysis")
		return utils.SendError(c, fiber.StatusBadGateway, "Failed to parse complexity analysis")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assistant request failed")
		return utils.SendError(c, fiber.StatusBadGateway, "assistant request failed")
	}
}
