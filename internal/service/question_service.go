package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/models"
	"github.com/treytuscai/DevReady/internal/repository"
)

const (
	questionCachePrefix     = "devready:questions:"
	defaultQuestionCacheTTL = 5 * time.Minute
)

// ErrNoQuestions indicates the catalogue is empty.
var ErrNoQuestions = errors.New("no questions available")

// QuestionCache drops cached question views after their statistics change.
type QuestionCache interface {
	InvalidateQuestion(ctx context.Context, questionID uint)
	InvalidateAll(ctx context.Context)
}

// QuestionService exposes question browsing and recommendations.
type QuestionService interface {
	QuestionCache
	List(ctx context.Context, tag string) ([]dto.QuestionResponse, error)
	Get(ctx context.Context, id uint) (dto.QuestionDetailResponse, error)
	Next(ctx context.Context, userID uint) (dto.QuestionResponse, error)
}

type questionService struct {
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewQuestionService constructs a question service. cache may be nil.
func NewQuestionService(questions repository.QuestionRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) QuestionService {
	if ttl <= 0 {
		ttl = defaultQuestionCacheTTL
	}
	return &questionService{
		questions:   questions,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		sanitizer:   bluemonday.UGCPolicy(),
		tracer:      otel.Tracer("github.com/treytuscai/DevReady/internal/service"),
		logger:      logger.With().Str("component", "question_service").Logger(),
	}
}

func listCacheKey(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = "_all"
	}
	return questionCachePrefix + "list:" + tag
}

func detailCacheKey(id uint) string {
	return fmt.Sprintf("%sdetail:%d", questionCachePrefix, id)
}

func (s *questionService) List(ctx context.Context, tag string) ([]dto.QuestionResponse, error) {
	cacheKey := listCacheKey(tag)
	ctx, span := s.tracer.Start(ctx, "questions.list", trace.WithAttributes(attribute.String("questions.cache_key", cacheKey)))
	defer span.End()

	var cached []dto.QuestionResponse
	if s.readCache(ctx, span, cacheKey, &cached) {
		return cached, nil
	}

	questions, err := s.questions.List(ctx, repository.QuestionFilter{Tag: tag})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_questions_failed")
		return nil, fmt.Errorf("list questions: %w", err)
	}

	response := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		response = append(response, s.toResponse(question))
	}

	s.writeCache(ctx, span, cacheKey, response)
	return response, nil
}

func (s *questionService) Get(ctx context.Context, id uint) (dto.QuestionDetailResponse, error) {
	cacheKey := detailCacheKey(id)
	ctx, span := s.tracer.Start(ctx, "questions.get", trace.WithAttributes(attribute.String("questions.cache_key", cacheKey)))
	defer span.End()

	var cached dto.QuestionDetailResponse
	if s.readCache(ctx, span, cacheKey, &cached) {
		return cached, nil
	}

	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionDetailResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		return dto.QuestionDetailResponse{}, fmt.Errorf("load question: %w", err)
	}

	stats, err := s.submissions.StatsForQuestion(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.QuestionDetailResponse{}, fmt.Errorf("load submission stats: %w", err)
	}

	response := dto.QuestionDetailResponse{
		QuestionResponse: s.toResponse(question),
		AcceptanceRate:   acceptanceRate(stats),
		TotalSubmissions: stats.Total,
	}

	s.writeCache(ctx, span, cacheKey, response)
	return response, nil
}

// Next recommends the easiest unpassed question in the tag where the user has
// passed the fewest questions. Ties between tags go to the alphabetically first.
func (s *questionService) Next(ctx context.Context, userID uint) (dto.QuestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "questions.next")
	defer span.End()

	questions, err := s.questions.List(ctx, repository.QuestionFilter{})
	if err != nil {
		span.RecordError(err)
		return dto.QuestionResponse{}, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return dto.QuestionResponse{}, ErrNoQuestions
	}

	passedIDs, err := s.submissions.PassedQuestionIDs(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.QuestionResponse{}, fmt.Errorf("load passed questions: %w", err)
	}

	question := recommendQuestion(questions, passedIDs)
	span.SetAttributes(attribute.Int64("questions.recommended_id", int64(question.ID)))
	return s.toResponse(question), nil
}

func recommendQuestion(questions []models.Question, passedIDs []uint) models.Question {
	passed := make(map[uint]struct{}, len(passedIDs))
	for _, id := range passedIDs {
		passed[id] = struct{}{}
	}

	completions := map[string]int{}
	for _, question := range questions {
		_, done := passed[question.ID]
		for _, tag := range question.Tags {
			if _, ok := completions[tag.Name]; !ok {
				completions[tag.Name] = 0
			}
			if done {
				completions[tag.Name]++
			}
		}
	}

	ordered := append([]models.Question(nil), questions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := models.DifficultyRank(ordered[i].Difficulty), models.DifficultyRank(ordered[j].Difficulty)
		if ri != rj {
			return ri < rj
		}
		return ordered[i].ID < ordered[j].ID
	})

	if tag, ok := weakestTag(completions); ok {
		for _, question := range ordered {
			if _, done := passed[question.ID]; done {
				continue
			}
			for _, t := range question.Tags {
				if t.Name == tag {
					return question
				}
			}
		}
	}

	return ordered[0]
}

func weakestTag(completions map[string]int) (string, bool) {
	if len(completions) == 0 {
		return "", false
	}
	names := make([]string, 0, len(completions))
	for name := range completions {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if completions[name] < completions[best] {
			best = name
		}
	}
	return best, true
}

func acceptanceRate(stats repository.SubmissionStats) int {
	if stats.Total == 0 {
		return 0
	}
	return int(math.Round(float64(stats.Passed) / float64(stats.Total) * 100))
}

func (s *questionService) toResponse(question models.Question) dto.QuestionResponse {
	response := dto.NewQuestionResponse(question)
	response.Description = s.sanitizer.Sanitize(response.Description)
	return response
}

func (s *questionService) InvalidateQuestion(ctx context.Context, questionID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, detailCacheKey(questionID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("question_id", questionID).Msg("failed to invalidate question cache")
	}
}

func (s *questionService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, questionCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan question cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate question cache")
	}
}

func (s *questionService) readCache(ctx context.Context, span trace.Span, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		if unmarshalErr := json.Unmarshal([]byte(cached), target); unmarshalErr == nil {
			span.SetAttributes(attribute.Bool("questions.cache_hit", true))
			return true
		}
	} else if err != redis.Nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to read question cache")
		span.RecordError(err)
	}
	return false
}

func (s *questionService) writeCache(ctx context.Context, span trace.Span, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store question cache")
		span.RecordError(err)
	}
}
