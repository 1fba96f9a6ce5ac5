package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devready",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI assistant requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devready",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI assistant failures",
	}, []string{"model", "operation"})
)

// Defaults for the OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
	unknown        = "Unknown"
)

// OpenAIConfig defines configuration options for the OpenAI-compatible assistant.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against an OpenAI-compatible chat completion API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	return &OpenAIAssistant{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/treytuscai/DevReady/pkg/ai/openai"),
		logger: logger.With().Str("component", "ai_assistant").Logger(),
	}, nil
}

// Hint asks the model for a short nudge that does not reveal the solution.
func (a *OpenAIAssistant) Hint(ctx context.Context, input SolutionInput) (string, error) {
	userPrompt := fmt.Sprintf(
		"I am solving the Leetcode question '%s', but I'm stuck.\nHere is my code so far:\n%s",
		input.QuestionDescription, input.Code,
	)
	return a.complete(ctx, "hint", hintSystemPrompt(), userPrompt)
}

// Analyze asks the model for the time and space complexity of the user's code.
func (a *OpenAIAssistant) Analyze(ctx context.Context, input SolutionInput) (ComplexityAnalysis, error) {
	userPrompt := fmt.Sprintf(
		"I solved a Leetcode question with this description: '%s'. Can you analyze my solution's time/space complexity and compare it to the optimal one? Here is my code:\n%s",
		input.QuestionDescription, input.Code,
	)
	content, err := a.complete(ctx, "analyze", analysisSystemPrompt(), userPrompt)
	if err != nil {
		return ComplexityAnalysis{}, err
	}

	analysis, err := parseComplexityAnalysis(content)
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model, "analyze").Inc()
		a.logger.Warn().Err(err).Msg("unparseable complexity analysis")
		return ComplexityAnalysis{}, err
	}
	return analysis, nil
}

func (a *OpenAIAssistant) complete(parent context.Context, operation, systemPrompt, userPrompt string) (string, error) {
	ctx, span := a.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	aiDuration.WithLabelValues(a.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(a.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func hintSystemPrompt() string {
	return "You are a coding interviewer. Your interviewee is stuck on a Leetcode-style problem. " +
		"Evaluate their code, identify mistakes, and guide them toward a solution. " +
		"DO NOT GIVE AWAY THE ANSWER. Only provide a hint. Be very brief, concise and patient."
}

func analysisSystemPrompt() string {
	return "You are a CS professor specializing in algorithms. " +
		"You analyze student algorithm submissions against the known optimal worst-case time complexity. " +
		"Choose complexity classes from: O(1), O(logn), O(n), O(nlogn), O(n^2), O(n^m), O(2^n), O(n!). " +
		"Respond with a single JSON object and nothing else, shaped like " +
		`{"user_time_complexity": "...", "optimal_time_complexity": "...", "user_space_complexity": "...", "optimal_space_complexity": "..."}`
}

// parseComplexityAnalysis extracts the JSON object between the first '{' and the
// last '}' of the reply. Missing fields read as "Unknown".
func parseComplexityAnalysis(content string) (ComplexityAnalysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return ComplexityAnalysis{}, fmt.Errorf("%w: no json object", ErrInvalidAnalysis)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content[start:end+1]), &data); err != nil {
		return ComplexityAnalysis{}, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	field := func(key string) string {
		if value, ok := data[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return unknown
	}

	analysis := ComplexityAnalysis{
		TimeComplexity:         field("user_time_complexity"),
		SpaceComplexity:        field("user_space_complexity"),
		OptimalTimeComplexity:  field("optimal_time_complexity"),
		OptimalSpaceComplexity: field("optimal_space_complexity"),
	}
	analysis.Explanation = fmt.Sprintf(
		"Your solution runs in %s time and uses %s space. The optimal solution runs in %s time and uses %s space.",
		analysis.TimeComplexity, analysis.SpaceComplexity, analysis.OptimalTimeComplexity, analysis.OptimalSpaceComplexity,
	)
	return analysis, nil
}
