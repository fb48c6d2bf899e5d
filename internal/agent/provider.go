// SPDX-License-Identifier: AGPL-3.0-only
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hli-yohan-lee/dev-mcp/internal/config"
)

// ToolDefinition is a provider-agnostic representation of a tool that can be
// offered to an LLM during a chat completion.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall represents a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is a provider-agnostic chat message.
type Message struct {
	Role       string     // "user", "assistant", "tool"
	Content    string     // text content
	ToolCalls  []ToolCall // tool calls requested by the assistant
	ToolCallID string     // set when Role == "tool" to correlate with a ToolCall
}

// ToolChoice controls whether the model may, must, or must not call tools.
// The zero value leaves the decision to the provider default.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// CompletionRequest is one chat completion call
type CompletionRequest struct {
	Model string
	// System is an optional instruction prepended to the conversation.
	System     string
	Messages   []Message
	Tools      []ToolDefinition
	ToolChoice ToolChoice
	MaxTokens  int
}

// Usage reports token accounting for one completion
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Completion is the assistant's reply
type Completion struct {
	Message Message
	Usage   Usage
}

// ChatProvider abstracts a chat-completion backend so the agent loop can work
// with any LLM provider.
type ChatProvider interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ProviderFactory builds a provider for one request. apiKey, when set,
// overrides the configured key.
type ProviderFactory func(apiKey string) (ChatProvider, error)

// NewProviderFactory returns a factory for the provider selected in cfg
func NewProviderFactory(cfg config.AIConfig) ProviderFactory {
	return func(apiKey string) (ChatProvider, error) {
		switch strings.ToLower(cfg.Provider) {
		case "anthropic":
			if apiKey == "" {
				apiKey = firstNonEmpty(cfg.AnthropicAPIKey, cfg.APIKey)
			}
			if apiKey == "" {
				return nil, fmt.Errorf("Anthropic API key is not set")
			}
			return NewAnthropicProvider(apiKey, cfg.BaseURL), nil
		default: // "openai" or empty
			if apiKey == "" {
				apiKey = firstNonEmpty(cfg.OpenAIAPIKey, cfg.APIKey)
			}
			if apiKey == "" {
				return nil, fmt.Errorf("OpenAI API key is not set")
			}
			return NewOpenAIProvider(apiKey, cfg.BaseURL), nil
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
