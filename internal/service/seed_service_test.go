package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/treytuscai/DevReady/internal/dto"
)

func seedPayload() dto.SeedQuestionsRequest {
	return dto.SeedQuestionsRequest{Questions: []dto.SeedQuestion{{
		Slug:           " Two-Sum ",
		Title:          "Two Sum",
		Difficulty:     "easy",
		ExpectedMethod: "twoSum",
		ParameterShape: []string{"nums", "target"},
		Tags:           []string{"Arrays", "arrays", "Hash Table"},
		TestCases: []dto.SeedTestCase{
			{Input: `{"nums": [2, 7], "target": 9}`, ExpectedOutput: "[0, 1]", IsSample: true},
		},
	}}}
}

func TestSeedServiceTokenGuard(t *testing.T) {
	repo := &questionRepoStub{}
	cache := &cacheStub{}
	svc := NewSeedService(repo, cache, validator.New(), true, "secret", testLogger())

	_, err := svc.SeedQuestions(context.Background(), "wrong", seedPayload())
	require.ErrorIs(t, err, ErrSeedUnauthorized)
	require.Nil(t, repo.upserted)

	affected, err := svc.SeedQuestions(context.Background(), " secret ", seedPayload())
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Equal(t, 1, cache.all)

	question := repo.upserted[0]
	require.Equal(t, "two-sum", question.Slug)
	require.Equal(t, "nums,target", question.ParameterShape)
	require.Equal(t, []string{"nums", "target"}, question.ParameterNames())
	require.Equal(t, []string{"Arrays", "Hash Table"}, question.TagNames())
	require.Len(t, question.TestCases, 1)
	require.True(t, question.TestCases[0].IsSample)
}

func TestSeedServiceDisabled(t *testing.T) {
	svc := NewSeedService(&questionRepoStub{}, nil, validator.New(), false, "secret", testLogger())
	_, err := svc.SeedQuestions(context.Background(), "secret", seedPayload())
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceValidatesPayload(t *testing.T) {
	svc := NewSeedService(&questionRepoStub{}, nil, validator.New(), true, "secret", testLogger())

	payload := seedPayload()
	payload.Questions[0].Difficulty = "impossible"
	_, err := svc.SeedQuestions(context.Background(), "secret", payload)
	require.True(t, isValidationErr(err))

	_, err = svc.SeedQuestions(context.Background(), "secret", dto.SeedQuestionsRequest{})
	require.True(t, isValidationErr(err))
}

func isValidationErr(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}
