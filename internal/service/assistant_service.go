package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/pkg/ai"
)

// ErrAssistantUnavailable indicates no AI provider is configured.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// AssistantService exposes AI coaching for practice problems.
type AssistantService interface {
	Hint(ctx context.Context, payload dto.AssistantRequest) (dto.HintResponse, error)
	Analyze(ctx context.Context, payload dto.AssistantRequest) (ai.ComplexityAnalysis, error)
}

type assistantService struct {
	assistant ai.Assistant
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssistantService constructs the assistant service. assistant may be nil.
func NewAssistantService(assistant ai.Assistant, validate *validator.Validate, logger zerolog.Logger) AssistantService {
	return &assistantService{
		assistant: assistant,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assistant_service").Logger(),
	}
}

func (s *assistantService) Hint(ctx context.Context, payload dto.AssistantRequest) (dto.HintResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HintResponse{}, err
	}
	if s.assistant == nil {
		return dto.HintResponse{}, ErrAssistantUnavailable
	}

	hint, err := s.assistant.Hint(ctx, toSolutionInput(payload))
	if err != nil {
		s.logger.Error().Err(err).Msg("hint request failed")
		return dto.HintResponse{}, fmt.Errorf("generate hint: %w", err)
	}

	return dto.HintResponse{Hint: strings.TrimSpace(s.sanitizer.Sanitize(hint))}, nil
}

func (s *assistantService) Analyze(ctx context.Context, payload dto.AssistantRequest) (ai.ComplexityAnalysis, error) {
	if err := s.validator.Struct(payload); err != nil {
		return ai.ComplexityAnalysis{}, err
	}
	if s.assistant == nil {
		return ai.ComplexityAnalysis{}, ErrAssistantUnavailable
	}

	analysis, err := s.assistant.Analyze(ctx, toSolutionInput(payload))
	if err != nil {
		s.logger.Error().Err(err).Msg("complexity analysis failed")
		return ai.ComplexityAnalysis{}, fmt.Errorf("analyze solution: %w", err)
	}

	analysis.Explanation = s.sanitizer.Sanitize(analysis.Explanation)
	return analysis, nil
}

func toSolutionInput(payload dto.AssistantRequest) ai.SolutionInput {
	return ai.SolutionInput{
		QuestionDescription: payload.QuestionDescription,
		Code:                payload.Code,
	}
}
