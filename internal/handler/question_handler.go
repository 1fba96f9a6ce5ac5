package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/service"
	"github.com/treytuscai/DevReady/internal/utils"
)

// QuestionHandler exposes the question catalogue.
type QuestionHandler struct {
	service service.QuestionService
	logger  zerolog.Logger
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(service service.QuestionService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register wires question routes.
func (h *QuestionHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/next", h.next)
	router.Get("/:id", h.get)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	questions, err := h.service.List(requestContext(c), c.Query("tag"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list questions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *QuestionHandler) get(c *fiber.Ctx) error {
	id, ok := parseQuestionID(c.Params("id"))
	if !ok {
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	}

	question, err := h.service.Get(requestContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "question not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("question_id", id).Msg("failed to load question")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch question")
	}
	return utils.SendSuccess(c, "question retrieved", question)
}

func (h *QuestionHandler) next(c *fiber.Ctx) error {
	question, err := h.service.Next(requestContext(c), userIDFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrNoQuestions) {
			return utils.SendError(c, fiber.StatusNotFound, "no questions available")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to recommend question")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to recommend question")
	}
	return utils.SendSuccess(c, "next question", question)
}
