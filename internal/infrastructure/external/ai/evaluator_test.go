package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
)

func TestExtractScore_InstructedFormat(t *testing.T) {
	score, ok := extractScore("Score: 85/100. Clean solution with good naming.")
	assert.True(t, ok)
	assert.Equal(t, 85, score)
}

func TestExtractScore_CaseAndSpacing(t *testing.T) {
	score, ok := extractScore("score:  92 / 100 — impressive work")
	assert.True(t, ok)
	assert.Equal(t, 92, score)
}

func TestExtractScore_LooseNumberFallback(t *testing.T) {
	score, ok := extractScore("I'd say this deserves a solid 70 for the effort shown.")
	assert.True(t, ok)
	assert.Equal(t, 70, score)
}

func TestExtractScore_OutOfRangeRejected(t *testing.T) {
	_, ok := extractScore("rating 400 out of scale")
	assert.False(t, ok)
}

func TestExtractScore_NoNumber(t *testing.T) {
	_, ok := extractScore("I cannot evaluate this submission.")
	assert.False(t, ok)
}

func TestExtractFeedback_StripsScorePrefix(t *testing.T) {
	feedback := extractFeedback("Score: 85/100. Clean solution with good naming.")
	assert.Equal(t, "Clean solution with good naming.", feedback)
}

func TestExtractFeedback_NoPrefixKeepsReply(t *testing.T) {
	feedback := extractFeedback("  solid effort overall  ")
	assert.Equal(t, "solid effort overall", feedback)
}

func TestEvaluator_Evaluate(t *testing.T) {
	server := completionServer(t, "Score: 78/100. Good structure, missing edge cases.")
	defer server.Close()

	evaluator := NewEvaluator(testClient(server.URL))

	result, err := evaluator.Evaluate(context.Background(), "Mango", "my sorting homework")
	require.NoError(t, err)
	assert.Equal(t, 78, result.Score)
	assert.Equal(t, "Good structure, missing edge cases.", result.Feedback)
}

func TestEvaluator_UnparseableReplyIsError(t *testing.T) {
	server := completionServer(t, "I refuse to grade this.")
	defer server.Close()

	evaluator := NewEvaluator(testClient(server.URL))

	_, err := evaluator.Evaluate(context.Background(), "Mango", "homework")
	assert.Error(t, err)
}

func TestEvaluator_GatewayDownIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer server.Close()

	evaluator := NewEvaluator(testClient(server.URL))

	_, err := evaluator.Evaluate(context.Background(), "Mango", "homework")
	assert.Error(t, err)
}

func TestCompanion_Reply(t *testing.T) {
	server := completionServer(t, "  *happy chirp* I love mangoes!  ")
	defer server.Close()

	companion := NewCompanion(testClient(server.URL))

	reply, err := companion.Reply(context.Background(), "Mango",
		creature.Stats{Happiness: 80, Energy: 60, Hunger: 30}, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "*happy chirp* I love mangoes!", reply)
}

func TestPersonalityPrompt_ReflectsStats(t *testing.T) {
	prompt := personalityPrompt("Mango", creature.Stats{Happiness: 10, Energy: 90, Hunger: 20})

	assert.Contains(t, prompt, "Mango")
	assert.Contains(t, prompt, "a bit sad")
	assert.Contains(t, prompt, "full of energy")
	assert.Contains(t, prompt, "very hungry")
}

// completionServer answers every completion request with the given content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req CompletionRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		resp := CompletionResponseDTO{
			ID:    "cmpl-test",
			Model: req.Model,
			Choices: []ChoiceDTO{
				{Index: 0, Message: MessageDTO{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

// testClient builds a client with retries disabled so failures surface fast.
func testClient(baseURL string) *Client {
	config := DefaultClientConfig(baseURL, "test-key", "test-model")
	config.Timeout = 2 * time.Second
	config.RetryConfig.MaxRetries = 0
	config.RateLimiterConfig.MinInterval = 0
	return NewClient(config)
}
