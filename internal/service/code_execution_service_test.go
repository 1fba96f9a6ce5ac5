package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/internal/harness"
	"github.com/treytuscai/DevReady/internal/models"
	"github.com/treytuscai/DevReady/internal/repository"
	"github.com/treytuscai/DevReady/pkg/sandbox"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type questionRepoStub struct {
	questions map[uint]models.Question
	upserted  []models.Question
	err       error
}

func (r *questionRepoStub) List(ctx context.Context, filter repository.QuestionFilter) ([]models.Question, error) {
	if r.err != nil {
		return nil, r.err
	}
	var list []models.Question
	for id := uint(1); id <= uint(len(r.questions)); id++ {
		if question, ok := r.questions[id]; ok {
			list = append(list, question)
		}
	}
	return list, nil
}

func (r *questionRepoStub) GetByID(ctx context.Context, id uint) (models.Question, error) {
	if r.err != nil {
		return models.Question{}, r.err
	}
	question, ok := r.questions[id]
	if !ok {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (r *questionRepoStub) UpsertBySlug(ctx context.Context, questions []models.Question) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.upserted = questions
	return int64(len(questions)), nil
}

type submissionRepoStub struct {
	created []models.Submission
	stats   repository.SubmissionStats
	passed  []uint
	err     error
}

func (r *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	if r.err != nil {
		return r.err
	}
	submission.ID = uint(len(r.created) + 1)
	r.created = append(r.created, *submission)
	return nil
}

func (r *submissionRepoStub) StatsForQuestion(ctx context.Context, questionID uint) (repository.SubmissionStats, error) {
	return r.stats, r.err
}

func (r *submissionRepoStub) PassedQuestionIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.passed, r.err
}

type dispatchCall struct {
	Language string
	Program  string
}

type dispatcherStub struct {
	mu      sync.Mutex
	calls   []dispatchCall
	results []sandbox.ExecutionResult
}

func (d *dispatcherStub) Dispatch(ctx context.Context, language, program string) sandbox.ExecutionResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	index := len(d.calls)
	d.calls = append(d.calls, dispatchCall{Language: language, Program: program})
	if index < len(d.results) {
		return d.results[index]
	}
	return sandbox.ExecutionResult{}
}

type publisherStub struct {
	events []dto.SubmissionEvent
}

func (p *publisherStub) PublishSubmission(ctx context.Context, event dto.SubmissionEvent) {
	p.events = append(p.events, event)
}

type cacheStub struct {
	invalidated []uint
	all         int
}

func (c *cacheStub) InvalidateQuestion(ctx context.Context, questionID uint) {
	c.invalidated = append(c.invalidated, questionID)
}

func (c *cacheStub) InvalidateAll(ctx context.Context) {
	c.all++
}

func output(value interface{}) sandbox.ExecutionResult {
	return sandbox.ExecutionResult{Output: value}
}

func sumArrayQuestion() models.Question {
	return models.Question{
		ID:             1,
		Slug:           "sum-array",
		Title:          "Sum Array",
		Difficulty:     models.DifficultyEasy,
		ExpectedMethod: "sumArray",
		TestCases: []models.TestCase{
			{ID: 1, InputData: "[1, 2, 3]", ExpectedOutput: "6", IsSample: true},
			{ID: 2, InputData: "[4, 5]", ExpectedOutput: "9"},
		},
	}
}

func newExecutionService(questions *questionRepoStub, submissions *submissionRepoStub, dispatcher *dispatcherStub, events SubmissionPublisher, cache QuestionCache) CodeExecutionService {
	return NewCodeExecutionService(questions, submissions, harness.NewRegistry(), dispatcher, events, cache, testLogger())
}

func TestRunTestsMixedOutcomes(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{
		output(json.Number("6")),
		output(json.Number("10")),
	}}
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, dispatcher, nil, nil)

	var observed []int
	cases := sumArrayQuestion().TestCases
	results, passed := svc.RunTests(context.Background(), "def sumArray(nums):\n    return sum(nums)", cases, harness.ResolveProblem("sumArray", harness.Overrides{}), "python", func(index int, outcome dto.TestOutcome) {
		observed = append(observed, index)
	})

	require.False(t, passed)
	require.Len(t, results, 2)
	require.Equal(t, []int{0, 1}, observed)

	require.True(t, results[0].Passed)
	require.Equal(t, "[1, 2, 3]", results[0].Input)
	require.Equal(t, "6", results[0].Expected)

	require.False(t, results[1].Passed)
	require.Equal(t, harness.HiddenValue, results[1].Input)
	require.Equal(t, harness.HiddenValue, results[1].Expected)
	require.Equal(t, json.Number("10"), results[1].Output)

	require.Len(t, dispatcher.calls, 2)
	require.Equal(t, "python", dispatcher.calls[0].Language)
}

func TestRunTestsUnsupportedLanguageSkipsDispatch(t *testing.T) {
	dispatcher := &dispatcherStub{}
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, dispatcher, nil, nil)

	results, passed := svc.RunTests(context.Background(), "puts 1", sumArrayQuestion().TestCases[:1], harness.ResolveProblem("sumArray", harness.Overrides{}), "ruby", nil)
	require.False(t, passed)
	require.Empty(t, dispatcher.calls)
	require.Nil(t, results[0].Output)
	require.Equal(t, []string{"Language 'ruby' is not supported yet"}, results[0].Stderr)
}

func TestRunTestsNoCasesPasses(t *testing.T) {
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, &dispatcherStub{}, nil, nil)

	results, passed := svc.RunTests(context.Background(), "x", nil, harness.ResolveProblem("sumArray", harness.Overrides{}), "python", nil)
	require.True(t, passed)
	require.Empty(t, results)
}

func TestRunTestsSortedComparison(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{
		output([]interface{}{json.Number("1"), json.Number("0")}),
	}}
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, dispatcher, nil, nil)

	cases := []models.TestCase{{InputData: `{"nums": [2, 7, 11, 15], "target": 9}`, ExpectedOutput: "[0, 1]", IsSample: true}}
	results, passed := svc.RunTests(context.Background(), "src", cases, harness.ResolveProblem("twoSum", harness.Overrides{}), "python", nil)
	require.True(t, passed)
	require.True(t, results[0].Passed)
}

func TestRunTestsNumericEquality(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6.0"))}}
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, dispatcher, nil, nil)

	cases := []models.TestCase{{InputData: "[1, 2, 3]", ExpectedOutput: "6", IsSample: true}}
	_, passed := svc.RunTests(context.Background(), "src", cases, harness.ResolveProblem("sumArray", harness.Overrides{}), "go", nil)
	require.True(t, passed)
}

func TestRunTestsErrorWithNullExpectationFails(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{{Stderr: []string{"NameError: name 'x' is not defined"}}}}
	svc := newExecutionService(&questionRepoStub{}, &submissionRepoStub{}, dispatcher, nil, nil)

	cases := []models.TestCase{{InputData: "[]", ExpectedOutput: "null", IsSample: true}}
	_, passed := svc.RunTests(context.Background(), "src", cases, harness.ResolveProblem("solve", harness.Overrides{}), "python", nil)
	require.False(t, passed)
}

func TestRunUsesSampleCasesOnly(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6"))}}
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	svc := newExecutionService(questions, &submissionRepoStub{}, dispatcher, nil, nil)

	response, err := svc.Run(context.Background(), 1, dto.RunRequest{Code: "def sumArray(nums): return sum(nums)"}, nil)
	require.NoError(t, err)
	require.True(t, response.Passed)
	require.Len(t, response.Results, 1)
	require.Len(t, dispatcher.calls, 1)
	require.Equal(t, "python", dispatcher.calls[0].Language)
}

func TestRunValidatesRequest(t *testing.T) {
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	svc := newExecutionService(questions, &submissionRepoStub{}, &dispatcherStub{}, nil, nil)

	_, err := svc.Run(context.Background(), 1, dto.RunRequest{Code: "   "}, nil)
	require.ErrorIs(t, err, ErrCodeRequired)

	_, err = svc.Run(context.Background(), 42, dto.RunRequest{Code: "x"}, nil)
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestRunNormalizesLanguageAliases(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6"))}}
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	svc := newExecutionService(questions, &submissionRepoStub{}, dispatcher, nil, nil)

	_, err := svc.Run(context.Background(), 1, dto.RunRequest{Code: "function sumArray(nums: number[]): number { return 0 }", Language: "ts"}, nil)
	require.NoError(t, err)
	require.Equal(t, "javascript", dispatcher.calls[0].Language)
	require.NotContains(t, dispatcher.calls[0].Program, "number[]")
}

func TestSubmitPersistsAndPublishes(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6")), output(json.Number("9"))}}
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	submissions := &submissionRepoStub{}
	events := &publisherStub{}
	cache := &cacheStub{}
	svc := newExecutionService(questions, submissions, dispatcher, events, cache)

	response, err := svc.Submit(context.Background(), 7, 1, dto.RunRequest{Code: "func sumArray(nums []int) int { return 0 }", Language: "go"})
	require.NoError(t, err)
	require.True(t, response.Passed)
	require.Len(t, response.Results, 2)

	require.Len(t, submissions.created, 1)
	stored := submissions.created[0]
	require.Equal(t, uint(7), stored.UserID)
	require.Equal(t, uint(1), stored.QuestionID)
	require.Equal(t, models.SubmissionPassed, stored.Result)
	require.Equal(t, "go", stored.Language)
	require.Equal(t, 2, stored.PassedCount)
	require.Equal(t, 2, stored.TotalCount)

	var outcomes []dto.TestOutcome
	require.NoError(t, json.Unmarshal(stored.Outcomes, &outcomes))
	require.Len(t, outcomes, 2)
	require.Equal(t, harness.HiddenValue, outcomes[1].Input)

	require.Equal(t, []uint{1}, cache.invalidated)
	require.Len(t, events.events, 1)
	require.Equal(t, models.SubmissionPassed, events.events[0].Result)
	require.Equal(t, uint(1), events.events[0].SubmissionID)
}

func TestSubmitRecordsFailure(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6")), output(json.Number("0"))}}
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	submissions := &submissionRepoStub{}
	svc := newExecutionService(questions, submissions, dispatcher, nil, nil)

	response, err := svc.Submit(context.Background(), 7, 1, dto.RunRequest{Code: "src"})
	require.NoError(t, err)
	require.False(t, response.Passed)
	require.Equal(t, models.SubmissionFailed, submissions.created[0].Result)
	require.Equal(t, "python", submissions.created[0].Language)
	require.Equal(t, 1, submissions.created[0].PassedCount)
}

func TestSubmitPersistenceFailure(t *testing.T) {
	dispatcher := &dispatcherStub{results: []sandbox.ExecutionResult{output(json.Number("6")), output(json.Number("9"))}}
	questions := &questionRepoStub{questions: map[uint]models.Question{1: sumArrayQuestion()}}
	events := &publisherStub{}
	svc := newExecutionService(questions, &submissionRepoStub{err: errors.New("disk full")}, dispatcher, events, nil)

	_, err := svc.Submit(context.Background(), 7, 1, dto.RunRequest{Code: "src"})
	require.ErrorIs(t, err, ErrSubmissionPersist)
	require.Contains(t, err.Error(), "disk full")
	require.Empty(t, events.events)
}
