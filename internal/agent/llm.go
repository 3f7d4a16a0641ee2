package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/sashabaranov/go-openai"

	"pitchmate/internal/tools"
)

const (
	// DefaultModel is used when OPENAI_MODEL is empty.
	DefaultModel = "gpt-4o-mini"

	maxSteps     = 5
	systemPrompt = "You are PitchMate's assistant for camping, leisure sports and travel in Korea. " +
		"Use the available tools when a question needs fresh information from the web or a domain lookup. " +
		"Answer concisely in the language of the question."
)

var (
	// ErrMissingAPIKey is returned by New when OPENAI_API_KEY is empty.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")
	// ErrNoAnswer is returned when the model stops calling tools without answering.
	ErrNoAnswer = errors.New("agent did not produce an answer")
)

// Config configures New.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the OpenAI API endpoint.
	BaseURL string
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type toolCaller interface {
	CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error)
}

// LLMAgent answers questions with an OpenAI chat model that can call MCP tools.
type LLMAgent struct {
	chat   chatCompleter
	model  string
	tools  []openai.Tool
	caller toolCaller
	logger *slog.Logger
}

// New reads the tool list from mcp and builds an LLMAgent.
func New(ctx context.Context, cfg Config, mcp *MCPClient, logger *slog.Logger) (*LLMAgent, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	descriptors, err := mcp.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return newLLMAgent(openai.NewClientWithConfig(clientConfig), cfg.Model, descriptors, mcp, logger), nil
}

func newLLMAgent(chat chatCompleter, model string, descriptors []tools.Descriptor, caller toolCaller, logger *slog.Logger) *LLMAgent {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMAgent{
		chat:   chat,
		model:  model,
		tools:  functionTools(descriptors),
		caller: caller,
		logger: logger,
	}
}

// Ask runs the tool-calling loop until the model answers or the step limit is hit.
func (a *LLMAgent) Ask(ctx context.Context, query string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	for step := 0; step < maxSteps; step++ {
		resp, err := a.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    a.tools,
			// Zero is dropped by omitempty.
			Temperature: math.SmallestNonzeroFloat32,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrNoAnswer
		}

		reply := resp.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.runTool(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}

	return "", ErrNoAnswer
}

func (a *LLMAgent) runTool(ctx context.Context, call openai.ToolCall) string {
	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	out, err := a.caller.CallTool(ctx, call.Function.Name, args)
	if err != nil {
		a.logger.Warn("agent tool call failed", "tool", call.Function.Name, "error", err)
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(encoded)
	}
	return string(out)
}

// functionTools converts MCP descriptors into OpenAI function definitions.
// Every advertised parameter is required.
func functionTools(descriptors []tools.Descriptor) []openai.Tool {
	out := make([]openai.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		properties := make(map[string]any, len(d.Params))
		required := make([]string, 0, len(d.Params))
		for name, param := range d.Params {
			properties[name] = map[string]string{"type": param.Type, "description": param.Description}
			required = append(required, name)
		}
		sort.Strings(required)

		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}
