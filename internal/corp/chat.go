// SPDX-License-Identifier: AGPL-3.0-only
package corp

import (
	"context"
	"errors"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/agent"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

const (
	chatSystemPrompt = "당신은 MCP(Model Context Protocol) 도구들을 사용할 수 있는 AI 어시스턴트입니다.\n" +
		"사용자가 PDF 문서 분석, GitLab 프로젝트 정보 등이 필요할 때 적절한 MCP 도구를 제안하고 사용법을 안내해주세요.\n" +
		"사용자의 질문에 친근하고 도움이 되는 답변을 제공하세요."
	chatHistoryLimit = 10
	chatMaxTokens    = 1000
)

// ErrChatUnavailable is returned when no LLM key is configured
var ErrChatUnavailable = errors.New("OpenAI API key not configured")

// ChatTurn is one prior message of a conversation
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of /api/chat and the args of the CHAT action
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

// ChatReply is the result of one chat turn
type ChatReply struct {
	OK       bool        `json:"ok"`
	Response string      `json:"response"`
	Usage    agent.Usage `json:"usage"`
}

// Chat answers free-form messages with a plain completion
type Chat struct {
	provider agent.ChatProvider
	model    string
	logger   *logging.Logger
}

// NewChat creates a Chat. A nil provider makes every reply fail with
// ErrChatUnavailable.
func NewChat(provider agent.ChatProvider, model string, logger *logging.Logger) *Chat {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Chat{provider: provider, model: model, logger: logger}
}

// Reply sends the system prompt, the last ten history turns and the
// message, and returns the assistant's text with token usage.
func (c *Chat) Reply(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if c == nil || c.provider == nil {
		return nil, ErrChatUnavailable
	}

	history := req.History
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}
	messages := make([]agent.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, agent.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, agent.Message{Role: "user", Content: req.Message})
	c.logger.Debugf("Chat request with %d history turns", len(history))

	resp, err := c.provider.CreateCompletion(ctx, agent.CompletionRequest{
		Model:     c.model,
		System:    chatSystemPrompt,
		Messages:  messages,
		MaxTokens: chatMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("Chat API error: %w", err)
	}
	return &ChatReply{OK: true, Response: resp.Message.Content, Usage: resp.Usage}, nil
}
