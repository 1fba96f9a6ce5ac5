package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/harness"
	"github.com/treytuscai/DevReady/internal/models"
	"github.com/treytuscai/DevReady/internal/observability"
	"github.com/treytuscai/DevReady/internal/repository"
	"github.com/treytuscai/DevReady/pkg/sandbox"
)

var (
	// ErrQuestionNotFound indicates the requested question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCodeRequired indicates the request carried no source code.
	ErrCodeRequired = errors.New("no code provided")
	// ErrSubmissionPersist indicates the graded submission could not be stored.
	ErrSubmissionPersist = errors.New("failed to save submission")
)

// DefaultLanguage is used when a request omits the language.
const DefaultLanguage = harness.LanguagePython

// OutcomeObserver is notified after each test case finishes.
type OutcomeObserver func(index int, outcome dto.TestOutcome)

// CodeExecutionService grades user code against question test cases.
type CodeExecutionService interface {
	RunTests(ctx context.Context, source string, cases []models.TestCase, problem harness.Problem, language string, observer OutcomeObserver) ([]dto.TestOutcome, bool)
	Run(ctx context.Context, questionID uint, payload dto.RunRequest, observer OutcomeObserver) (dto.RunResponse, error)
	Submit(ctx context.Context, userID, questionID uint, payload dto.RunRequest) (dto.RunResponse, error)
}

type codeExecutionService struct {
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	registry    *harness.Registry
	dispatcher  sandbox.Dispatcher
	events      SubmissionPublisher
	cache       QuestionCache
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewCodeExecutionService constructs the grading service. events and cache may be nil.
func NewCodeExecutionService(questions repository.QuestionRepository, submissions repository.SubmissionRepository, registry *harness.Registry, dispatcher sandbox.Dispatcher, events SubmissionPublisher, cache QuestionCache, logger zerolog.Logger) CodeExecutionService {
	if registry == nil {
		registry = harness.NewRegistry()
	}
	return &codeExecutionService{
		questions:   questions,
		submissions: submissions,
		registry:    registry,
		dispatcher:  dispatcher,
		events:      events,
		cache:       cache,
		tracer:      otel.Tracer("github.com/treytuscai/DevReady/internal/service"),
		logger:      logger.With().Str("component", "code_execution_service").Logger(),
	}
}

func (s *codeExecutionService) RunTests(ctx context.Context, source string, cases []models.TestCase, problem harness.Problem, language string, observer OutcomeObserver) ([]dto.TestOutcome, bool) {
	ctx, span := s.tracer.Start(ctx, "code_execution.run_tests", trace.WithAttributes(
		attribute.String("harness.language", language),
		attribute.String("harness.entry_point", problem.EntryPoint),
		attribute.Int("harness.cases", len(cases)),
	))
	defer span.End()

	results := make([]dto.TestOutcome, 0, len(cases))
	allPassed := true

	for i, tc := range cases {
		var execution sandbox.ExecutionResult
		program, err := s.registry.Generate(harness.ExecutionRequest{
			SourceCode: source,
			RawInput:   tc.InputData,
			EntryPoint: problem.EntryPoint,
			Language:   language,
			Problem:    problem,
		})
		if err != nil {
			execution = sandbox.Unsupported(language)
		} else {
			execution = s.dispatcher.Dispatch(ctx, program.Language, program.Source)
		}

		passed := judge(execution, harness.ParseValue(tc.ExpectedOutput), problem.SortedCompare)
		outcome := dto.TestOutcome{
			Passed:   passed,
			Input:    tc.InputData,
			Expected: tc.ExpectedOutput,
			Output:   execution.Output,
			Stdout:   execution.Stdout,
			Stderr:   execution.Stderr,
		}
		if !tc.IsSample {
			outcome.Input = harness.HiddenValue
			outcome.Expected = harness.HiddenValue
		}

		verdict := "passed"
		if !passed {
			verdict = "failed"
			allPassed = false
		}
		observability.TestCases().WithLabelValues(language, verdict).Inc()

		results = append(results, outcome)
		if observer != nil {
			observer(i, outcome)
		}
	}

	span.SetAttributes(attribute.Bool("harness.passed", allPassed))
	return results, allPassed
}

// judge compares a program's result with the expected value. A missing result
// accompanied by stderr is a failure even when null was expected.
func judge(execution sandbox.ExecutionResult, expected interface{}, sorted bool) bool {
	if execution.Output == nil && len(execution.Stderr) > 0 {
		return false
	}
	output := execution.Output
	if sorted {
		output = harness.Normalize(output)
		expected = harness.Normalize(expected)
	}
	return harness.Equal(output, expected)
}

func (s *codeExecutionService) Run(ctx context.Context, questionID uint, payload dto.RunRequest, observer OutcomeObserver) (dto.RunResponse, error) {
	question, language, err := s.prepare(ctx, questionID, payload)
	if err != nil {
		return dto.RunResponse{}, err
	}

	results, passed := s.RunTests(ctx, payload.Code, question.SampleTestCases(), problemFor(question), language, observer)
	return dto.RunResponse{Passed: passed, Results: results}, nil
}

func (s *codeExecutionService) Submit(ctx context.Context, userID, questionID uint, payload dto.RunRequest) (dto.RunResponse, error) {
	question, language, err := s.prepare(ctx, questionID, payload)
	if err != nil {
		return dto.RunResponse{}, err
	}

	results, passed := s.RunTests(ctx, payload.Code, question.TestCases, problemFor(question), language, nil)

	submission := models.Submission{
		UserID:     userID,
		QuestionID: question.ID,
		Code:       payload.Code,
		Result:     models.SubmissionFailed,
		Language:   language,
		TotalCount: len(results),
	}
	if passed {
		submission.Result = models.SubmissionPassed
	}
	for _, outcome := range results {
		if outcome.Passed {
			submission.PassedCount++
		}
	}
	if encoded, err := json.Marshal(results); err == nil {
		submission.Outcomes = datatypes.JSON(encoded)
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.logger.Error().Err(err).Uint("question_id", question.ID).Uint("user_id", userID).Msg("failed to store submission")
		return dto.RunResponse{}, fmt.Errorf("%w: %v", ErrSubmissionPersist, err)
	}
	observability.Submissions().WithLabelValues(language, submission.Result).Inc()

	if s.cache != nil {
		s.cache.InvalidateQuestion(ctx, question.ID)
	}
	if s.events != nil {
		s.events.PublishSubmission(ctx, dto.SubmissionEvent{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			QuestionID:   submission.QuestionID,
			Language:     submission.Language,
			Result:       submission.Result,
			PassedCount:  submission.PassedCount,
			TotalCount:   submission.TotalCount,
			CreatedAt:    submission.CreatedAt,
		})
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("question_id", question.ID).
		Str("language", language).
		Str("result", submission.Result).
		Msg("submission graded")

	return dto.RunResponse{Passed: passed, Results: results}, nil
}

func (s *codeExecutionService) prepare(ctx context.Context, questionID uint, payload dto.RunRequest) (models.Question, string, error) {
	if strings.TrimSpace(payload.Code) == "" {
		return models.Question{}, "", ErrCodeRequired
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, "", ErrQuestionNotFound
		}
		return models.Question{}, "", fmt.Errorf("load question: %w", err)
	}

	return question, ResolveLanguage(payload.Language), nil
}

// ResolveLanguage normalises a requested language, defaulting to Python.
func ResolveLanguage(language string) string {
	if strings.TrimSpace(language) == "" {
		return DefaultLanguage
	}
	return harness.NormalizeLanguage(language)
}

func problemFor(question models.Question) harness.Problem {
	return harness.ResolveProblem(question.ExpectedMethod, harness.Overrides{
		LinkedList:       question.LinkedListInput,
		OrderInsensitive: question.OrderInsensitive,
		ParameterShape:   question.ParameterNames(),
	})
}
