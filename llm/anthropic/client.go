// Package anthropic provides an llm.Client implementation backed by the
// Anthropic Claude Messages API. It translates domain planning/synthesis/
// reasoning calls into anthropic.Message requests using
// github.com/anthropics/anthropic-sdk-go, forcing structured JSON output via
// a single-tool tool_choice for Plan/Synthesize and running a tool-calling
// loop for Reason.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/llm"
)

const maxReasoningTurns = 8

type (
	// MessagesClient captures the subset of the Anthropic SDK used by the
	// adapter, satisfied by *sdk.MessageService so callers can pass a mock in
	// tests.
	MessagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// Options configures the Anthropic adapter.
	Options struct {
		// DefaultModel is the Claude model identifier used for every call.
		// Use the typed model constants from anthropic-sdk-go (e.g.
		// string(sdk.ModelClaudeSonnet4_5_20250929)).
		DefaultModel string
		MaxTokens    int
		Temperature  float64
	}

	// Client implements llm.Client on top of Anthropic Claude Messages.
	Client struct {
		msg      MessagesClient
		model    string
		maxTok   int
		temp     float64
	}
)

// New builds an Anthropic-backed llm.Client.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = 4096
	}
	return &Client{msg: msg, model: opts.DefaultModel, maxTok: maxTok, temp: opts.Temperature}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, opts)
}

// Plan issues a structured-output request forced into a single "emit_plan"
// tool call and decodes the tool input into a domain.ExecutionPlan.
func (c *Client) Plan(ctx context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	prompt := planPrompt(in)
	var plan domain.ExecutionPlan
	if err := c.structuredCall(ctx, prompt, "emit_plan", "Emit the execution plan as structured JSON.", planSchema, &plan); err != nil {
		return domain.ExecutionPlan{}, fmt.Errorf("anthropic plan: %w", err)
	}
	return plan, nil
}

// Synthesize issues a structured-output request forced into a single
// "emit_synthesis" tool call.
func (c *Client) Synthesize(ctx context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	prompt := synthesizePrompt(in)
	var synth domain.SynthesisResult
	if err := c.structuredCall(ctx, prompt, "emit_synthesis", "Emit the synthesized customer reply as structured JSON.", synthesisSchema, &synth); err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("anthropic synthesize: %w", err)
	}
	return synth, nil
}

// Reason runs the tool-calling loop for one specialist step: the model may
// call any of tools zero or more times before returning a final text
// response, which becomes SpecialistOutput.Response.
func (c *Client) Reason(ctx context.Context, in domain.SpecialistInput, tools []llm.Tool) (domain.SpecialistOutput, error) {
	toolDefs, sanToCanon, err := encodeTools(tools)
	if err != nil {
		return domain.SpecialistOutput{}, fmt.Errorf("anthropic reason: %w", err)
	}

	msgs := []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(reasonPrompt(in)))}
	var callLog []string
	toolResults := map[string]any{}

	for turn := 0; turn < maxReasoningTurns; turn++ {
		params := sdk.MessageNewParams{
			Model:     sdk.Model(c.model),
			MaxTokens: int64(c.maxTok),
			Messages:  msgs,
		}
		if len(toolDefs) > 0 {
			params.Tools = toolDefs
		}
		if c.temp > 0 {
			params.Temperature = sdk.Float(c.temp)
		}
		resp, err := c.msg.New(ctx, params)
		if err != nil {
			return domain.SpecialistOutput{}, fmt.Errorf("anthropic reason: messages.new: %w", err)
		}

		var text string
		var toolUses []sdk.ContentBlockUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text += block.Text
			case "tool_use":
				toolUses = append(toolUses, block)
			}
		}
		if len(toolUses) == 0 {
			return domain.SpecialistOutput{
				Response:    text,
				ToolResults: toolResults,
				ToolCallLog: callLog,
			}, nil
		}

		assistantBlocks := make([]sdk.ContentBlockParamUnion, 0, len(toolUses))
		for _, t := range toolUses {
			assistantBlocks = append(assistantBlocks, sdk.NewToolUseBlock(t.ID, t.Input, t.Name))
		}
		msgs = append(msgs, sdk.NewAssistantMessage(assistantBlocks...))

		resultBlocks := make([]sdk.ContentBlockParamUnion, 0, len(toolUses))
		for _, t := range toolUses {
			canonical, ok := sanToCanon[t.Name]
			if !ok {
				resultBlocks = append(resultBlocks, sdk.NewToolResultBlock(t.ID, "unknown tool", true))
				continue
			}
			tool := findTool(tools, canonical)
			var args map[string]any
			_ = json.Unmarshal(t.Input, &args)
			out, err := tool.Invoke(ctx, args)
			callLog = append(callLog, fmt.Sprintf("%s(%s)", canonical, string(t.Input)))
			if err != nil {
				resultBlocks = append(resultBlocks, sdk.NewToolResultBlock(t.ID, err.Error(), true))
				continue
			}
			toolResults[canonical] = out
			encoded, _ := json.Marshal(out)
			resultBlocks = append(resultBlocks, sdk.NewToolResultBlock(t.ID, string(encoded), false))
		}
		msgs = append(msgs, sdk.NewUserMessage(resultBlocks...))
	}
	return domain.SpecialistOutput{}, fmt.Errorf("anthropic reason: exceeded %d tool-calling turns", maxReasoningTurns)
}

func findTool(tools []llm.Tool, name string) llm.Tool {
	for _, t := range tools {
		if t.Name == name {
			return t
		}
	}
	return llm.Tool{}
}

// structuredCall forces the model to respond via a single tool call and
// decodes its JSON input into dest.
func (c *Client) structuredCall(ctx context.Context, prompt, toolName, toolDesc string, schema map[string]any, dest any) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return err
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTok),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
		Tools: []sdk.ToolUnionParam{
			sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaMap}, toolName),
		},
		ToolChoice: sdk.ToolChoiceParamOfTool(toolName),
	}
	if c.temp > 0 {
		params.Temperature = sdk.Float(c.temp)
	}
	resp, err := c.msg.New(ctx, params)
	if err != nil {
		return fmt.Errorf("messages.new: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == toolName {
			return json.Unmarshal(block.Input, dest)
		}
	}
	return fmt.Errorf("response did not contain a %q tool call", toolName)
}

func encodeTools(tools []llm.Tool) ([]sdk.ToolUnionParam, map[string]string, error) {
	if len(tools) == 0 {
		return nil, nil, nil
	}
	defs := make([]sdk.ToolUnionParam, 0, len(tools))
	sanToCanon := make(map[string]string, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		sanToCanon[t.Name] = t.Name
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: t.InputSchema}, t.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(t.Description)
		}
		defs = append(defs, u)
	}
	return defs, sanToCanon, nil
}
