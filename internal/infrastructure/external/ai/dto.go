package ai

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// Chat-completion request/response shapes of the gateway.
// ══════════════════════════════════════════════════════════════════════════════

// MessageDTO is one message in a completion conversation.
type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequestDTO is the completion request body.
type CompletionRequestDTO struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []MessageDTO `json:"messages"`
}

// ChoiceDTO is one completion candidate.
type ChoiceDTO struct {
	Index        int        `json:"index"`
	Message      MessageDTO `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// UsageDTO is the token accounting of a completion.
type UsageDTO struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponseDTO is the completion response body.
type CompletionResponseDTO struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []ChoiceDTO `json:"choices"`
	Usage   UsageDTO    `json:"usage"`
}

// APIErrorDTO is the gateway's error envelope.
type APIErrorDTO struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	ErrorBody  struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Message returns the human-readable error message.
func (e *APIErrorDTO) Message() string {
	return e.ErrorBody.Message
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("gateway error (%s): %s", e.ErrorBody.Type, e.ErrorBody.Message)
}
