// Package openai provides an llm.Client implementation backed by the OpenAI
// Chat Completions API via github.com/sashabaranov/go-openai. Structured
// output for Plan/Synthesize is forced via a single named function tool
// choice; Reason runs a function-calling loop.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/llm"
)

const maxReasoningTurns = 8

// ChatClient captures the subset of the go-openai client used by the
// adapter, satisfied by *openai.Client so callers can pass a mock in tests.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the OpenAI adapter.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client implements llm.Client via the OpenAI Chat Completions API.
type Client struct {
	chat   ChatClient
	model  string
	maxTok int
	temp   float32
}

// New builds an OpenAI-backed llm.Client.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: client is required")
	}
	model := strings.TrimSpace(opts.DefaultModel)
	if model == "" {
		return nil, errors.New("openai: default model is required")
	}
	return &Client{chat: chat, model: model, maxTok: opts.MaxTokens, temp: opts.Temperature}, nil
}

// NewFromAPIKey constructs a client using the default go-openai HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	return New(openai.NewClient(apiKey), opts)
}

// Plan forces a single "emit_plan" function call and decodes its arguments.
func (c *Client) Plan(ctx context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	var plan domain.ExecutionPlan
	if err := c.structuredCall(ctx, planPrompt(in), "emit_plan", "Emit the execution plan.", planSchema, &plan); err != nil {
		return domain.ExecutionPlan{}, fmt.Errorf("openai plan: %w", err)
	}
	return plan, nil
}

// Synthesize forces a single "emit_synthesis" function call.
func (c *Client) Synthesize(ctx context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	var synth domain.SynthesisResult
	if err := c.structuredCall(ctx, synthesizePrompt(in), "emit_synthesis", "Emit the synthesized reply.", synthesisSchema, &synth); err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("openai synthesize: %w", err)
	}
	return synth, nil
}

// Reason runs the function-calling loop for one specialist step.
func (c *Client) Reason(ctx context.Context, in domain.SpecialistInput, tools []llm.Tool) (domain.SpecialistOutput, error) {
	toolDefs := encodeTools(tools)
	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: reasonPrompt(in)}}
	var callLog []string
	toolResults := map[string]any{}

	for turn := 0; turn < maxReasoningTurns; turn++ {
		req := openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temp,
		}
		if c.maxTok > 0 {
			req.MaxTokens = c.maxTok
		}
		if len(toolDefs) > 0 {
			req.Tools = toolDefs
		}
		resp, err := c.chat.CreateChatCompletion(ctx, req)
		if err != nil {
			return domain.SpecialistOutput{}, fmt.Errorf("openai reason: chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return domain.SpecialistOutput{}, errors.New("openai reason: no choices returned")
		}
		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return domain.SpecialistOutput{
				Response:    msg.Content,
				ToolResults: toolResults,
				ToolCallLog: callLog,
			}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			tool := findTool(tools, call.Function.Name)
			var args map[string]any
			_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
			var content string
			if tool.Invoke == nil {
				content = "unknown tool"
			} else {
				out, err := tool.Invoke(ctx, args)
				callLog = append(callLog, fmt.Sprintf("%s(%s)", call.Function.Name, call.Function.Arguments))
				if err != nil {
					content = err.Error()
				} else {
					toolResults[call.Function.Name] = out
					encoded, _ := json.Marshal(out)
					content = string(encoded)
				}
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}
	return domain.SpecialistOutput{}, fmt.Errorf("openai reason: exceeded %d tool-calling turns", maxReasoningTurns)
}

func findTool(tools []llm.Tool, name string) llm.Tool {
	for _, t := range tools {
		if t.Name == name {
			return t
		}
	}
	return llm.Tool{}
}

func (c *Client) structuredCall(ctx context.Context, prompt, funcName, funcDesc string, schema map[string]any, dest any) error {
	params, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        funcName,
				Description: funcDesc,
				Parameters:  json.RawMessage(params),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: funcName},
		},
	}
	if c.maxTok > 0 {
		req.MaxTokens = c.maxTok
	}
	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("no choices returned")
	}
	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Function.Name == funcName {
			return json.Unmarshal([]byte(call.Function.Arguments), dest)
		}
	}
	return fmt.Errorf("response did not contain a %q function call", funcName)
}

func encodeTools(tools []llm.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params, err := json.Marshal(t.InputSchema)
		if err != nil {
			continue
		}
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return defs
}
