package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"pitchmate/internal/tools"
)

type chatStub struct {
	requests  []openai.ChatCompletionRequest
	responses []openai.ChatCompletionResponse
}

func (c *chatStub) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no scripted response")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

type callerStub struct {
	name string
	args string
	out  json.RawMessage
	err  error
}

func (c *callerStub) CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	c.name = name
	c.args = string(args)
	return c.out, c.err
}

func reply(msg openai.ChatCompletionMessage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: msg}}}
}

var searchDescriptor = tools.Descriptor{
	Name:        "web_search",
	Description: "search",
	Params:      map[string]tools.Param{"query": {Type: "string", Description: "q"}},
}

func TestAskRunsToolCallLoop(t *testing.T) {
	chat := &chatStub{responses: []openai.ChatCompletionResponse{
		reply(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call-1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "web_search", Arguments: `{"query":"가평 캠핑"}`},
			}},
		}),
		reply(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "가평에는 캠핑장이 많습니다."}),
	}}
	caller := &callerStub{out: json.RawMessage(`{"items":[]}`)}

	agent := newLLMAgent(chat, "", []tools.Descriptor{searchDescriptor}, caller, nil)
	answer, err := agent.Ask(context.Background(), "가평 캠핑장 추천")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "가평에는 캠핑장이 많습니다." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if caller.name != "web_search" || caller.args != `{"query":"가평 캠핑"}` {
		t.Fatalf("unexpected tool call %s %s", caller.name, caller.args)
	}

	if len(chat.requests) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(chat.requests))
	}
	first := chat.requests[0]
	if first.Model != DefaultModel || len(first.Tools) != 1 || first.Tools[0].Function.Name != "web_search" {
		t.Fatalf("unexpected first request %+v", first)
	}
	second := chat.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call-1" || last.Content != `{"items":[]}` {
		t.Fatalf("unexpected tool message %+v", last)
	}
}

func TestAskReportsToolErrorsToModel(t *testing.T) {
	chat := &chatStub{responses: []openai.ChatCompletionResponse{
		reply(openai.ChatCompletionMessage{ToolCalls: []openai.ToolCall{{ID: "c", Function: openai.FunctionCall{Name: "domain_info"}}}}),
		reply(openai.ChatCompletionMessage{Content: "done"}),
	}}
	caller := &callerStub{err: errors.New("tool is not configured")}

	agent := newLLMAgent(chat, "gpt-test", nil, caller, nil)
	if _, err := agent.Ask(context.Background(), "whois example.com"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if caller.args != `{}` {
		t.Fatalf("empty arguments should default to an object, got %q", caller.args)
	}
	msgs := chat.requests[1].Messages
	if !strings.Contains(msgs[len(msgs)-1].Content, "tool is not configured") {
		t.Fatalf("expected error to be relayed, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestAskStopsAtStepLimit(t *testing.T) {
	loop := reply(openai.ChatCompletionMessage{ToolCalls: []openai.ToolCall{{ID: "c", Function: openai.FunctionCall{Name: "web_search", Arguments: `{"query":"x"}`}}}})
	chat := &chatStub{}
	for i := 0; i < maxSteps; i++ {
		chat.responses = append(chat.responses, loop)
	}

	agent := newLLMAgent(chat, "", nil, &callerStub{out: json.RawMessage(`{}`)}, nil)
	if _, err := agent.Ask(context.Background(), "loop"); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFunctionToolsSchema(t *testing.T) {
	converted := functionTools([]tools.Descriptor{searchDescriptor})

	params, ok := converted[0].Function.Parameters.(map[string]any)
	if !ok {
		t.Fatalf("unexpected parameters type %T", converted[0].Function.Parameters)
	}
	if params["type"] != "object" {
		t.Fatalf("expected object schema, got %v", params["type"])
	}
	required, _ := params["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Fatalf("unexpected required %v", params["required"])
	}
}
