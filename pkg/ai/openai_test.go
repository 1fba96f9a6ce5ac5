package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, status int, content string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var requests []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNewOpenAIAssistantRequiresKey(t *testing.T) {
	_, err := NewOpenAIAssistant(OpenAIConfig{})
	require.Error(t, err)
}

func TestOpenAIAssistantHint(t *testing.T) {
	server, requests := newChatServer(t, http.StatusOK, "  Think about a hash map.  ")
	assistant, err := NewOpenAIAssistant(OpenAIConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	hint, err := assistant.Hint(context.Background(), SolutionInput{QuestionDescription: "Two Sum", Code: "def twoSum(): pass"})
	require.NoError(t, err)
	require.Equal(t, "Think about a hash map.", hint)

	require.Len(t, *requests, 1)
	request := (*requests)[0]
	require.Equal(t, DefaultModel, request["model"])
	messages := request["messages"].([]interface{})
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	require.Contains(t, user["content"], "'Two Sum'")
	require.Contains(t, user["content"], "def twoSum(): pass")
}

func TestOpenAIAssistantAnalyze(t *testing.T) {
	reply := "Sure! ```json\n{\"user_time_complexity\": \"O(n^2)\", \"optimal_time_complexity\": \"O(n)\", \"user_space_complexity\": \"O(1)\"}\n```"
	server, _ := newChatServer(t, http.StatusOK, reply)
	assistant, err := NewOpenAIAssistant(OpenAIConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	analysis, err := assistant.Analyze(context.Background(), SolutionInput{QuestionDescription: "Two Sum", Code: "code"})
	require.NoError(t, err)
	require.Equal(t, "O(n^2)", analysis.TimeComplexity)
	require.Equal(t, "O(1)", analysis.SpaceComplexity)
	require.Equal(t, "O(n)", analysis.OptimalTimeComplexity)
	require.Equal(t, "Unknown", analysis.OptimalSpaceComplexity)
	require.Equal(t, "Your solution runs in O(n^2) time and uses O(1) space. The optimal solution runs in O(n) time and uses Unknown space.", analysis.Explanation)
}

func TestOpenAIAssistantUpstreamError(t *testing.T) {
	server, _ := newChatServer(t, http.StatusInternalServerError, "")
	assistant, err := NewOpenAIAssistant(OpenAIConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = assistant.Hint(context.Background(), SolutionInput{QuestionDescription: "q", Code: "c"})
	require.Error(t, err)
}

func TestParseComplexityAnalysisRejectsNonJSON(t *testing.T) {
	_, err := parseComplexityAnalysis("I cannot help with that.")
	require.True(t, errors.Is(err, ErrInvalidAnalysis))

	_, err = parseComplexityAnalysis("{not json}")
	require.True(t, errors.Is(err, ErrInvalidAnalysis))
}
