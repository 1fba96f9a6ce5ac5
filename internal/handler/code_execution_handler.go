package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/middleware"
	"github.com/treytuscai/DevReady/internal/service"
)

// CodeExecutionHandler serves the run and submit routes. Responses use the bare
// {passed, results} and {error, details} shapes consumed by the editor.
type CodeExecutionHandler struct {
	service service.CodeExecutionService
	logger  zerolog.Logger
}

// NewCodeExecutionHandler constructs a code execution handler.
func NewCodeExecutionHandler(service service.CodeExecutionService, logger zerolog.Logger) *CodeExecutionHandler {
	return &CodeExecutionHandler{
		service: service,
		logger:  logger.With().Str("component", "code_execution_handler").Logger(),
	}
}

// Register wires the execution routes behind the given guards.
func (h *CodeExecutionHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	chain := func(handlers ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), handlers...)
	}
	router.Post("/run/:id", chain(h.run)...)
	router.Post("/submit/:id", chain(h.submit)...)
	router.Get("/run/:id/ws", chain(h.upgrade, websocket.New(h.stream))...)
}

func (h *CodeExecutionHandler) run(c *fiber.Ctx) error {
	questionID, ok := parseQuestionID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Question not found"})
	}

	var payload dto.RunRequest
	if err := c.BodyParser(&payload); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	response, err := h.service.Run(requestContext(c), questionID, payload, nil)
	if err != nil {
		return h.handleError(c, err, "Error running sample tests")
	}
	return c.JSON(response)
}

func (h *CodeExecutionHandler) submit(c *fiber.Ctx) error {
	questionID, ok := parseQuestionID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Question not found"})
	}

	var payload dto.RunRequest
	if err := c.BodyParser(&payload); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	response, err := h.service.Submit(requestContext(c), userIDFromContext(c), questionID, payload)
	if err != nil {
		return h.handleError(c, err, "Error submitting solution")
	}
	return c.JSON(response)
}

func (h *CodeExecutionHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrCodeRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "No code provided"})
	case errors.Is(err, service.ErrQuestionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Question not found"})
	case errors.Is(err, service.ErrSubmissionPersist):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to save submission", Details: err.Error()})
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("code execution failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: fallback, Details: err.Error()})
	}
}

func (h *CodeExecutionHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("request_ctx", middleware.ContextWithCorrelation(context.Background(), middleware.GetCorrelationID(c)))
	return c.Next()
}

// stream reads the source code from the first text frame, then writes one frame
// per finished sample case followed by the aggregate response.
func (h *CodeExecutionHandler) stream(conn *websocket.Conn) {
	defer conn.Close()

	questionID, ok := parseQuestionID(conn.Params("id"))
	if !ok {
		_ = conn.WriteJSON(dto.ErrorResponse{Error: "Question not found"})
		return
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		h.logger.Debug().Err(err).Msg("run stream closed before code was received")
		return
	}

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	payload := dto.RunRequest{Code: string(message), Language: conn.Query("language")}
	var writeErr error
	response, err := h.service.Run(ctx, questionID, payload, func(index int, outcome dto.TestOutcome) {
		if writeErr != nil {
			return
		}
		if writeErr = conn.WriteJSON(outcome); writeErr != nil {
			cancel()
		}
	})

	switch {
	case errors.Is(err, service.ErrCodeRequired):
		_ = conn.WriteJSON(dto.ErrorResponse{Error: "No code provided"})
	case errors.Is(err, service.ErrQuestionNotFound):
		_ = conn.WriteJSON(dto.ErrorResponse{Error: "Question not found"})
	case err != nil:
		h.logger.Error().Err(err).Uint("question_id", questionID).Msg("streamed run failed")
		_ = conn.WriteJSON(dto.ErrorResponse{Error: "Error running sample tests", Details: err.Error()})
	case writeErr != nil:
		h.logger.Debug().Err(writeErr).Msg("run stream client went away")
	default:
		_ = conn.WriteJSON(response)
	}
}

func parseQuestionID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
