package ai

import (
	"context"
	"errors"
)

// ErrInvalidAnalysis indicates the model reply did not contain a complexity object.
var ErrInvalidAnalysis = errors.New("invalid analysis response")

// SolutionInput carries the question and the user's code for an assistant request.
type SolutionInput struct {
	QuestionDescription string
	Code                string
}

// ComplexityAnalysis compares the user's solution with the optimal complexity classes.
type ComplexityAnalysis struct {
	TimeComplexity         string `json:"timeComplexity"`
	SpaceComplexity        string `json:"spaceComplexity"`
	OptimalTimeComplexity  string `json:"optimalTimeComplexity"`
	OptimalSpaceComplexity string `json:"optimalSpaceComplexity"`
	Explanation            string `json:"explanation"`
}

// Assistant describes an AI model that coaches users on practice problems.
type Assistant interface {
	Hint(ctx context.Context, input SolutionInput) (string, error)
	Analyze(ctx context.Context, input SolutionInput) (ComplexityAnalysis, error)
}
