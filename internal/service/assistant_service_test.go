package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/treytuscai/DevReady/internal/dto"
	"github.com/treytuscai/DevReady/pkg/ai"
)

type assistantStub struct {
	hint     string
	analysis ai.ComplexityAnalysis
	err      error
	inputs   []ai.SolutionInput
}

func (a *assistantStub) Hint(ctx context.Context, input ai.SolutionInput) (string, error) {
	a.inputs = append(a.inputs, input)
	return a.hint, a.err
}

func (a *assistantStub) Analyze(ctx context.Context, input ai.SolutionInput) (ai.ComplexityAnalysis, error) {
	a.inputs = append(a.inputs, input)
	return a.analysis, a.err
}

func TestAssistantServiceHint(t *testing.T) {
	stub := &assistantStub{hint: " Try a <b>hash map</b>. "}
	svc := NewAssistantService(stub, validator.New(), testLogger())

	response, err := svc.Hint(context.Background(), dto.AssistantRequest{QuestionDescription: "Two Sum", Code: "pass"})
	require.NoError(t, err)
	require.Equal(t, "Try a hash map.", response.Hint)
	require.Equal(t, []ai.SolutionInput{{QuestionDescription: "Two Sum", Code: "pass"}}, stub.inputs)
}

func TestAssistantServiceAnalyze(t *testing.T) {
	stub := &assistantStub{analysis: ai.ComplexityAnalysis{TimeComplexity: "O(n)", Explanation: "Runs in O(n)."}}
	svc := NewAssistantService(stub, validator.New(), testLogger())

	analysis, err := svc.Analyze(context.Background(), dto.AssistantRequest{QuestionDescription: "q", Code: "c"})
	require.NoError(t, err)
	require.Equal(t, "O(n)", analysis.TimeComplexity)
	require.Equal(t, "Runs in O(n).", analysis.Explanation)
}

func TestAssistantServiceErrors(t *testing.T) {
	svc := NewAssistantService(nil, validator.New(), testLogger())
	_, err := svc.Hint(context.Background(), dto.AssistantRequest{QuestionDescription: "q", Code: "c"})
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	_, err = svc.Analyze(context.Background(), dto.AssistantRequest{Code: "c"})
	require.True(t, isValidationErr(err))

	upstream := errors.New("rate limited")
	svc = NewAssistantService(&assistantStub{err: upstream}, validator.New(), testLogger())
	_, err = svc.Hint(context.Background(), dto.AssistantRequest{QuestionDescription: "q", Code: "c"})
	require.ErrorIs(t, err, upstream)
}
