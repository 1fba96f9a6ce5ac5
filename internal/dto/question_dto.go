package dto

import "github.com/treytuscai/DevReady/internal/models"

// TestCasePayload exposes a sample test case.
type TestCasePayload struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// QuestionResponse represents a question to API consumers.
type QuestionResponse struct {
	ID              uint              `json:"id"`
	Slug            string            `json:"slug"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Difficulty      string            `json:"difficulty"`
	ExpectedMethod  string            `json:"expected_method"`
	Tags            []string          `json:"tags"`
	SampleTestCases []TestCasePayload `json:"sample_test_cases"`
}

// QuestionDetailResponse adds submission statistics to a question.
type QuestionDetailResponse struct {
	QuestionResponse
	AcceptanceRate   int     `json:"acceptance_rate"`
	TotalSubmissions int64   `json:"total_submissions"`
}

// NewQuestionResponse builds a response DTO from a model.
func NewQuestionResponse(question models.Question) QuestionResponse {
	samples := question.SampleTestCases()
	cases := make([]TestCasePayload, 0, len(samples))
	for _, tc := range samples {
		cases = append(cases, TestCasePayload{Input: tc.InputData, ExpectedOutput: tc.ExpectedOutput})
	}

	return QuestionResponse{
		ID:              question.ID,
		Slug:            question.Slug,
		Title:           question.Title,
		Description:     question.Description,
		Difficulty:      question.Difficulty,
		ExpectedMethod:  question.ExpectedMethod,
		Tags:            question.TagNames(),
		SampleTestCases: cases,
	}
}

// SeedQuestionsRequest is the payload of the question seeding route.
type SeedQuestionsRequest struct {
	Questions []SeedQuestion `json:"questions" validate:"required,min=1,dive"`
}

// SeedQuestion describes a question to insert or update by slug.
type SeedQuestion struct {
	Slug             string         `json:"slug" validate:"required,max=128"`
	Title            string         `json:"title" validate:"required,max=255"`
	Description      string         `json:"description"`
	Difficulty       string         `json:"difficulty" validate:"required,oneof=easy medium hard"`
	ExpectedMethod   string         `json:"expected_method" validate:"required,max=128"`
	ParameterShape   []string       `json:"parameter_shape"`
	OrderInsensitive *bool          `json:"order_insensitive"`
	LinkedListInput  *bool          `json:"linked_list_input"`
	Tags             []string       `json:"tags" validate:"dive,required,max=64"`
	TestCases        []SeedTestCase `json:"test_cases" validate:"dive"`
}

// SeedTestCase describes one test case of a seeded question.
type SeedTestCase struct {
	Input          string `json:"input" validate:"required"`
	ExpectedOutput string `json:"expected_output" validate:"required"`
	IsSample       bool   `json:"is_sample"`
}
