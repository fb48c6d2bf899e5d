// SPDX-License-Identifier: AGPL-3.0-only
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/config"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
)

// Agent modes accepted by Ask
const (
	ModeDefault = "default"
	ModePlan    = "2step"
	ModeWorker  = "worker"
)

// User-facing answers. Callers of the gateway read Korean.
const (
	assistantPrompt = "당신은 MCP(Model Context Protocol) 도구를 활용하는 AI 어시스턴트입니다. " +
		"사용자 질문에 답하기 위해 가능한 한 제공된 MCP 도구들을 적극적으로 활용하세요. " +
		"특히 파일 읽기, 데이터베이스 조회, GitHub 정보 등이 필요한 질문에는 반드시 해당 도구를 사용해야 합니다."
	plannerPrompt = "당신은 MCP 도구를 선택하는 Planner입니다. 사용자 질문에 답하기 위해 필요한 도구들을 선택하세요."
	workerPrompt  = "당신은 MCP 도구 실행 결과를 바탕으로 사용자 질문에 답변하는 Worker입니다."

	answerNoTools        = "MCP 도구를 가져올 수 없습니다. 서버 상태를 확인해주세요."
	answerEmpty          = "답변을 생성할 수 없습니다."
	answerRequestFailed  = "질문 처리 중 오류가 발생했습니다: %v"
	answerSynthesisError = "도구 실행은 완료되었지만 최종 답변 생성에 실패했습니다. 에러: %v"
	toolFailed           = "도구 실행 실패: %v"
)

// Request is the body of an /ask call
type Request struct {
	Question string `json:"question"`
	APIKey   string `json:"api_key,omitempty"`
	Mode     string `json:"mode,omitempty"`
	// MCPResults carries already-executed tool results in worker mode.
	MCPResults []ToolOutcome `json:"mcp_results,omitempty"`
}

// ToolOutcome is one executed tool and its result
type ToolOutcome struct {
	Tool   string      `json:"tool"`
	Result interface{} `json:"result"`
}

// Answer is the result of a single-shot turn
type Answer struct {
	Answer    string                 `json:"answer"`
	ToolsUsed []string               `json:"tools_used"`
	MCPCalls  []model.ToolCallRecord `json:"mcp_calls"`
}

// PlannedCall is a tool selected by the planner but not executed
type PlannedCall struct {
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Plan is the result of the planner stage
type Plan struct {
	Mode            string        `json:"mode"`
	ToolCalls       []PlannedCall `json:"tool_calls"`
	PlannerResponse string        `json:"planner_response,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// WorkerAnswer is the result of the worker stage
type WorkerAnswer struct {
	Answer string `json:"answer"`
	Mode   string `json:"mode"`
}

// Orchestrator turns questions into tool calls and answers
type Orchestrator struct {
	providers ProviderFactory
	tools     ToolSource
	cfg       config.AIConfig
	logger    *logging.Logger
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(providers ProviderFactory, source ToolSource, cfg config.AIConfig, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Orchestrator{
		providers: providers,
		tools:     source,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Ask routes req to the mode it names. The result is an Answer, Plan or
// WorkerAnswer.
func (o *Orchestrator) Ask(ctx context.Context, req Request) interface{} {
	o.logger.Infof("Agent question (mode: %s)", modeOf(req.Mode))
	switch modeOf(req.Mode) {
	case ModePlan:
		return o.Plan(ctx, req.Question, req.APIKey)
	case ModeWorker:
		return o.Work(ctx, req.Question, req.APIKey, req.MCPResults)
	default:
		return o.SingleShot(ctx, req.Question, req.APIKey)
	}
}

func modeOf(mode string) string {
	if mode == "" {
		return ModeDefault
	}
	return mode
}

// SingleShot lets the model pick tools, runs them in emission order and
// asks for a final answer over the full transcript.
func (o *Orchestrator) SingleShot(ctx context.Context, question, apiKey string) Answer {
	tr := newTrace(o.now)
	failed := func(err error) Answer {
		o.logger.Errorf("Agent request failed: %v", err)
		return Answer{Answer: fmt.Sprintf(answerRequestFailed, err), ToolsUsed: []string{}, MCPCalls: []model.ToolCallRecord{}}
	}

	provider, err := o.providers(apiKey)
	if err != nil {
		return failed(err)
	}

	defs, err := o.tools.ListTools(ctx)
	if err != nil || len(defs) == 0 {
		if err != nil {
			o.logger.Warnf("Tool discovery failed: %v", err)
		}
		return Answer{Answer: answerNoTools, ToolsUsed: []string{}, MCPCalls: []model.ToolCallRecord{}}
	}
	toolDefs := toToolDefinitions(defs)
	o.logger.Debugf("Offering %d tools to the model", len(toolDefs))

	first, err := provider.CreateCompletion(ctx, CompletionRequest{
		Model:      o.cfg.Model,
		System:     assistantPrompt,
		Messages:   []Message{{Role: "user", Content: question}},
		Tools:      toolDefs,
		ToolChoice: ToolChoice(o.cfg.ToolChoice),
		MaxTokens:  o.cfg.MaxTokens,
	})
	if err != nil {
		return failed(err)
	}

	msg := first.Message
	if len(msg.ToolCalls) == 0 {
		return Answer{Answer: orEmpty(msg.Content), ToolsUsed: tr.used, MCPCalls: tr.records}
	}

	transcript := []Message{{Role: "user", Content: question}, msg}
	for _, call := range msg.ToolCalls {
		transcript = append(transcript, o.runTool(ctx, tr, call))
	}

	final, err := provider.CreateCompletion(ctx, CompletionRequest{
		Model:      o.cfg.Model,
		Messages:   transcript,
		Tools:      toolDefs,
		ToolChoice: ToolChoiceNone,
		MaxTokens:  o.cfg.MaxTokens,
	})
	if err != nil {
		o.logger.Warnf("Final answer synthesis failed: %v", err)
		return Answer{Answer: fmt.Sprintf(answerSynthesisError, err), ToolsUsed: tr.used, MCPCalls: tr.records}
	}
	return Answer{Answer: orEmpty(final.Message.Content), ToolsUsed: tr.used, MCPCalls: tr.records}
}

// runTool executes one call, records it and returns the tool message
// that carries its result back to the model. Failures become error
// payloads so the conversation continues.
func (o *Orchestrator) runTool(ctx context.Context, tr *trace, call ToolCall) Message {
	args, err := parseArguments(call.Arguments)
	var result map[string]interface{}
	if err == nil {
		o.logger.Infof("Tool call: %s", call.Name)
		result, err = o.tools.CallTool(ctx, call.Name, args)
	}
	if err != nil {
		o.logger.Warnf("Tool %s failed: %v", call.Name, err)
		result = map[string]interface{}{"error": fmt.Sprintf(toolFailed, err)}
		if args == nil {
			args = map[string]interface{}{}
		}
	}
	tr.record(call.Name, args, result)

	content, err := json.Marshal(result)
	if err != nil {
		content = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return Message{Role: "tool", Content: string(content), ToolCallID: call.ID}
}

// Plan asks the model to select tools without executing them
func (o *Orchestrator) Plan(ctx context.Context, question, apiKey string) Plan {
	plan := Plan{Mode: ModePlan, ToolCalls: []PlannedCall{}}

	provider, err := o.providers(apiKey)
	if err != nil {
		plan.Error = fmt.Sprintf(answerRequestFailed, err)
		return plan
	}
	defs, err := o.tools.ListTools(ctx)
	if err != nil || len(defs) == 0 {
		plan.Error = "MCP 도구를 가져올 수 없습니다."
		return plan
	}

	var catalog strings.Builder
	for i, d := range defs {
		fmt.Fprintf(&catalog, "%d. %s - %s\n", i+1, d.Name, d.Description)
	}
	prompt := fmt.Sprintf("사용자 질문을 분석하여 필요한 MCP 도구들을 선택하세요.\n\n사용 가능한 도구:\n%s\n사용자 질문: %s\n\n필요한 도구들을 선택하여 호출하세요.",
		catalog.String(), question)

	resp, err := provider.CreateCompletion(ctx, CompletionRequest{
		Model:      o.cfg.Model,
		System:     plannerPrompt,
		Messages:   []Message{{Role: "user", Content: prompt}},
		Tools:      toToolDefinitions(defs),
		ToolChoice: ToolChoiceRequired,
		MaxTokens:  o.cfg.MaxTokens,
	})
	if err != nil {
		o.logger.Errorf("Planner completion failed: %v", err)
		plan.Error = fmt.Sprintf(answerRequestFailed, err)
		return plan
	}

	for _, call := range resp.Message.ToolCalls {
		args, err := parseArguments(call.Arguments)
		if err != nil {
			o.logger.Warnf("Planner produced bad arguments for %s: %v", call.Name, err)
			args = map[string]interface{}{}
		}
		plan.ToolCalls = append(plan.ToolCalls, PlannedCall{ToolName: call.Name, Parameters: args})
	}
	plan.PlannerResponse = fmt.Sprintf("MCP 도구 호출 계획을 수립했습니다. %d개의 도구를 호출할 예정입니다.", len(plan.ToolCalls))
	return plan
}

// Work asks the model for the final answer from already-executed results.
// No tools are offered.
func (o *Orchestrator) Work(ctx context.Context, question, apiKey string, results []ToolOutcome) WorkerAnswer {
	provider, err := o.providers(apiKey)
	if err != nil {
		return WorkerAnswer{Answer: fmt.Sprintf(answerRequestFailed, err), Mode: ModeWorker}
	}

	var b strings.Builder
	b.WriteString("MCP 도구 실행 결과:\n\n")
	for _, r := range results {
		name := r.Tool
		if name == "" {
			name = "unknown"
		}
		raw, err := json.MarshalIndent(r.Result, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprintf("%v", r.Result))
		}
		fmt.Fprintf(&b, "도구: %s\n결과: %s\n\n", name, raw)
	}

	resp, err := provider.CreateCompletion(ctx, CompletionRequest{
		Model:  o.cfg.Model,
		System: workerPrompt,
		Messages: []Message{{
			Role:    "user",
			Content: fmt.Sprintf("다음 MCP 도구 실행 결과를 바탕으로 사용자 질문에 답변하세요.\n\n%s\n\n사용자 질문: %s", b.String(), question),
		}},
		MaxTokens: o.cfg.MaxTokens,
	})
	if err != nil {
		o.logger.Errorf("Worker completion failed: %v", err)
		return WorkerAnswer{Answer: fmt.Sprintf(answerRequestFailed, err), Mode: ModeWorker}
	}
	return WorkerAnswer{Answer: orEmpty(resp.Message.Content), Mode: ModeWorker}
}

func orEmpty(content string) string {
	if strings.TrimSpace(content) == "" {
		return answerEmpty
	}
	return content
}
