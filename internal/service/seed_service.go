package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/models"
	"github.com/treytuscai/DevReady/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads the question catalogue.
type SeedService interface {
	SeedQuestions(ctx context.Context, token string, payload dto.SeedQuestionsRequest) (int64, error)
}

type seedService struct {
	questionRepo repository.QuestionRepository
	cache        QuestionCache
	validator    *validator.Validate
	enabled      bool
	token        string
	logger       zerolog.Logger
}

// NewSeedService constructs a seeding service. cache may be nil.
func NewSeedService(questionRepo repository.QuestionRepository, cache QuestionCache, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		questionRepo: questionRepo,
		cache:        cache,
		validator:    validate,
		enabled:      enabled,
		token:        token,
		logger:       logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedQuestions(ctx context.Context, token string, payload dto.SeedQuestionsRequest) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return 0, err
	}

	affected, err := s.questionRepo.UpsertBySlug(ctx, normalizeQuestions(payload.Questions))
	if err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}

	s.logger.Info().Int64("affected", affected).Msg("questions seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func normalizeQuestions(items []dto.SeedQuestion) []models.Question {
	questions := make([]models.Question, 0, len(items))
	for _, item := range items {
		question := models.Question{
			Slug:             strings.ToLower(strings.TrimSpace(item.Slug)),
			Title:            strings.TrimSpace(item.Title),
			Description:      item.Description,
			Difficulty:       strings.ToLower(item.Difficulty),
			ExpectedMethod:   strings.TrimSpace(item.ExpectedMethod),
			ParameterShape:   strings.Join(item.ParameterShape, ","),
			OrderInsensitive: item.OrderInsensitive,
			LinkedListInput:  item.LinkedListInput,
		}
		if question.Slug == "" {
			question.Slug = strings.ReplaceAll(strings.ToLower(question.Title), " ", "-")
		}

		seen := map[string]struct{}{}
		for _, tag := range item.Tags {
			name := strings.TrimSpace(tag)
			if _, dup := seen[strings.ToLower(name)]; dup || name == "" {
				continue
			}
			seen[strings.ToLower(name)] = struct{}{}
			question.Tags = append(question.Tags, models.Tag{Name: name})
		}

		for _, tc := range item.TestCases {
			question.TestCases = append(question.TestCases, models.TestCase{
				InputData:      tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				IsSample:       tc.IsSample,
			})
		}
		questions = append(questions, question)
	}
	return questions
}
