// SPDX-License-Identifier: AGPL-3.0-only
package agent

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestToAnthropicTools(t *testing.T) {
	result := toAnthropicTools(testToolDefinitions())

	if len(result) != 2 {
		t.Fatalf("Expected 2 tools, got %d", len(result))
	}
	tool := result[0].OfTool
	if tool == nil {
		t.Fatal("Expected OfTool to be set")
	}
	if tool.Name != "read_pdf" {
		t.Errorf("Expected name 'read_pdf', got '%s'", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "filename" {
		t.Errorf("Expected required ['filename'], got %v", tool.InputSchema.Required)
	}
	if props, ok := result[1].OfTool.InputSchema.Properties.(map[string]interface{}); !ok || len(props) != 0 {
		t.Errorf("Expected empty properties, got %v", result[1].OfTool.InputSchema.Properties)
	}
}

func TestToAnthropicTools_RequiredAsStringSlice(t *testing.T) {
	result := toAnthropicTools([]ToolDefinition{{
		Name: "query_database",
		Parameters: map[string]interface{}{
			"properties": map[string]interface{}{"table": map[string]interface{}{"type": "string"}},
			"required":   []string{"table"},
		},
	}})
	if got := result[0].OfTool.InputSchema.Required; len(got) != 1 || got[0] != "table" {
		t.Errorf("Expected ['table'], got %v", got)
	}
}

func TestToAnthropicMessages(t *testing.T) {
	result := toAnthropicMessages([]Message{
		{Role: "user", Content: "백엔드 개발자 알려줘"},
		{Role: "assistant", Content: "Let me check", ToolCalls: []ToolCall{{ID: "toolu_1", Name: "query_database"}}},
		{Role: "tool", Content: `{"ok":true}`, ToolCallID: "toolu_1"},
	})

	if len(result) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(result))
	}
	if result[0].Role != anthropic.MessageParamRoleUser || result[0].Content[0].OfText == nil {
		t.Errorf("Expected user text message, got %+v", result[0])
	}
	if result[1].Role != anthropic.MessageParamRoleAssistant || len(result[1].Content) != 2 {
		t.Fatalf("Expected assistant text + tool_use, got %+v", result[1])
	}
	tu := result[1].Content[1].OfToolUse
	if tu == nil || tu.Name != "query_database" {
		t.Fatalf("Expected tool_use block, got %+v", result[1].Content[1])
	}
	if raw, ok := tu.Input.(json.RawMessage); !ok || string(raw) != "{}" {
		t.Errorf("Expected empty arguments to become {}, got %v", tu.Input)
	}
	if result[2].Role != anthropic.MessageParamRoleUser || result[2].Content[0].OfToolResult == nil {
		t.Fatalf("Expected tool result as user message, got %+v", result[2])
	}
	if result[2].Content[0].OfToolResult.ToolUseID != "toolu_1" {
		t.Errorf("Expected ToolUseID 'toolu_1', got '%s'", result[2].Content[0].OfToolResult.ToolUseID)
	}
}

func TestBuildAnthropicParams(t *testing.T) {
	tests := []struct {
		choice ToolChoice
		check  func(anthropic.ToolChoiceUnionParam) bool
	}{
		{ToolChoiceRequired, func(u anthropic.ToolChoiceUnionParam) bool { return u.OfAny != nil }},
		{ToolChoiceAuto, func(u anthropic.ToolChoiceUnionParam) bool { return u.OfAuto != nil }},
		{ToolChoiceNone, func(u anthropic.ToolChoiceUnionParam) bool { return u.OfNone != nil }},
	}
	for _, tt := range tests {
		params := buildAnthropicParams(CompletionRequest{
			Model:      "claude-sonnet-4-5",
			System:     "base",
			Messages:   []Message{{Role: "system", Content: "extra"}, {Role: "user", Content: "hi"}},
			Tools:      testToolDefinitions(),
			ToolChoice: tt.choice,
		})
		if !tt.check(params.ToolChoice) {
			t.Errorf("tool choice %s not mapped: %+v", tt.choice, params.ToolChoice)
		}
		if params.MaxTokens != defaultAnthropicMaxTokens {
			t.Errorf("MaxTokens = %d", params.MaxTokens)
		}
		if len(params.Messages) != 1 {
			t.Errorf("system message should be lifted out, got %d messages", len(params.Messages))
		}
		if len(params.System) != 1 || params.System[0].Text != "base\n\nextra" {
			t.Errorf("System = %+v", params.System)
		}
	}
}

func TestFromAnthropicMessage_MixedTextAndToolUse(t *testing.T) {
	var resp anthropic.Message
	raw := `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[
		{"type":"text","text":"Let me check"},
		{"type":"tool_use","id":"toolu_a","name":"read_pdf","input":{"filename":"백엔드_가이드.pdf"}},
		{"type":"tool_use","id":"toolu_b","name":"system_health","input":{}}
	],"stop_reason":"tool_use","usage":{"input_tokens":3,"output_tokens":4}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	result := fromAnthropicMessage(&resp)

	if result.Content != "Let me check" {
		t.Errorf("Expected 'Let me check', got '%s'", result.Content)
	}
	if len(result.ToolCalls) != 2 {
		t.Fatalf("Expected 2 tool calls, got %d", len(result.ToolCalls))
	}
	if result.ToolCalls[0].Name != "read_pdf" || result.ToolCalls[1].ID != "toolu_b" {
		t.Errorf("Unexpected tool calls %+v", result.ToolCalls)
	}
}
