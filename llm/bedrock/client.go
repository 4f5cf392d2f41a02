// Package bedrock provides an llm.Client implementation backed by the AWS
// Bedrock Converse API. It mirrors the request pipeline used elsewhere in
// this module: encode messages and tool schemas into Bedrock's Converse
// request shapes, force structured output for Plan/Synthesize via a
// specific tool choice, and run a tool-calling loop for Reason.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/llm"
)

const maxReasoningTurns = 8

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client used by
// the adapter, satisfied by *bedrockruntime.Client so callers can pass a
// mock in tests.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the Bedrock adapter.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client implements llm.Client on top of AWS Bedrock Converse.
type Client struct {
	runtime RuntimeClient
	model   string
	maxTok  int
	temp    float32
}

// New builds a Bedrock-backed llm.Client.
func New(runtime RuntimeClient, opts Options) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model is required")
	}
	return &Client{runtime: runtime, model: opts.DefaultModel, maxTok: opts.MaxTokens, temp: opts.Temperature}, nil
}

// Plan forces a single "emit_plan" tool call and decodes its input.
func (c *Client) Plan(ctx context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	var plan domain.ExecutionPlan
	if err := c.structuredCall(ctx, planPrompt(in), "emit_plan", "Emit the execution plan.", planSchema, &plan); err != nil {
		return domain.ExecutionPlan{}, fmt.Errorf("bedrock plan: %w", err)
	}
	return plan, nil
}

// Synthesize forces a single "emit_synthesis" tool call.
func (c *Client) Synthesize(ctx context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	var synth domain.SynthesisResult
	if err := c.structuredCall(ctx, synthesizePrompt(in), "emit_synthesis", "Emit the synthesized reply.", synthesisSchema, &synth); err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("bedrock synthesize: %w", err)
	}
	return synth, nil
}

// Reason runs the tool-calling loop for one specialist step.
func (c *Client) Reason(ctx context.Context, in domain.SpecialistInput, tools []llm.Tool) (domain.SpecialistOutput, error) {
	toolConfig := encodeTools(tools)
	messages := []brtypes.Message{{
		Role:    brtypes.ConversationRoleUser,
		Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: reasonPrompt(in)}},
	}}
	var callLog []string
	toolResults := map[string]any{}

	for turn := 0; turn < maxReasoningTurns; turn++ {
		input := &bedrockruntime.ConverseInput{
			ModelId:  aws.String(c.model),
			Messages: messages,
		}
		if toolConfig != nil {
			input.ToolConfig = toolConfig
		}
		if cfg := c.inferenceConfig(); cfg != nil {
			input.InferenceConfig = cfg
		}
		out, err := c.runtime.Converse(ctx, input)
		if err != nil {
			return domain.SpecialistOutput{}, fmt.Errorf("bedrock reason: converse: %w", err)
		}
		msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
		if !ok {
			return domain.SpecialistOutput{}, errors.New("bedrock reason: response missing message")
		}

		var text string
		var toolUses []brtypes.ToolUseBlock
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				text += v.Value
			case *brtypes.ContentBlockMemberToolUse:
				toolUses = append(toolUses, v.Value)
			}
		}
		if len(toolUses) == 0 {
			return domain.SpecialistOutput{
				Response:    text,
				ToolResults: toolResults,
				ToolCallLog: callLog,
			}, nil
		}

		assistantBlocks := make([]brtypes.ContentBlock, 0, len(toolUses))
		for _, t := range toolUses {
			assistantBlocks = append(assistantBlocks, &brtypes.ContentBlockMemberToolUse{Value: t})
		}
		messages = append(messages, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: assistantBlocks})

		resultBlocks := make([]brtypes.ContentBlock, 0, len(toolUses))
		for _, t := range toolUses {
			name := aws.ToString(t.Name)
			tool := findTool(tools, name)
			args := decodeDocument(t.Input)
			var content []brtypes.ToolResultContentBlock
			if tool.Invoke == nil {
				content = []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: "unknown tool"}}
			} else {
				out, err := tool.Invoke(ctx, args)
				raw, _ := json.Marshal(args)
				callLog = append(callLog, fmt.Sprintf("%s(%s)", name, raw))
				if err != nil {
					content = []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: err.Error()}}
				} else {
					toolResults[name] = out
					encoded, _ := json.Marshal(out)
					content = []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: string(encoded)}}
				}
			}
			resultBlocks = append(resultBlocks, &brtypes.ContentBlockMemberToolResult{
				Value: brtypes.ToolResultBlock{ToolUseId: t.ToolUseId, Content: content},
			})
		}
		messages = append(messages, brtypes.Message{Role: brtypes.ConversationRoleUser, Content: resultBlocks})
	}
	return domain.SpecialistOutput{}, fmt.Errorf("bedrock reason: exceeded %d tool-calling turns", maxReasoningTurns)
}

func findTool(tools []llm.Tool, name string) llm.Tool {
	for _, t := range tools {
		if t.Name == name {
			return t
		}
	}
	return llm.Tool{}
}

func (c *Client) structuredCall(ctx context.Context, prompt, toolName, toolDesc string, schema map[string]any, dest any) error {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.model),
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt}},
		}},
		ToolConfig: &brtypes.ToolConfiguration{
			Tools: []brtypes.Tool{&brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
				Name:        aws.String(toolName),
				Description: aws.String(toolDesc),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: lazyDocument(schema)},
			}}},
			ToolChoice: &brtypes.ToolChoiceMemberTool{Value: brtypes.SpecificToolChoice{Name: aws.String(toolName)}},
		},
	}
	if cfg := c.inferenceConfig(); cfg != nil {
		input.InferenceConfig = cfg
	}
	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return fmt.Errorf("converse: %w", err)
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return errors.New("response missing message")
	}
	for _, block := range msg.Value.Content {
		if v, ok := block.(*brtypes.ContentBlockMemberToolUse); ok && aws.ToString(v.Value.Name) == toolName {
			return json.Unmarshal(decodeDocumentRaw(v.Value.Input), dest)
		}
	}
	return fmt.Errorf("response did not contain a %q tool call", toolName)
}

func (c *Client) inferenceConfig() *brtypes.InferenceConfiguration {
	var cfg brtypes.InferenceConfiguration
	if c.maxTok > 0 {
		cfg.MaxTokens = aws.Int32(int32(c.maxTok)) //nolint:gosec
	}
	if c.temp > 0 {
		cfg.Temperature = aws.Float32(c.temp)
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}
	return &cfg
}

func encodeTools(tools []llm.Tool) *brtypes.ToolConfiguration {
	if len(tools) == 0 {
		return nil
	}
	list := make([]brtypes.Tool, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			continue
		}
		list = append(list, &brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
			Name:        aws.String(t.Name),
			Description: aws.String(t.Description),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: lazyDocument(t.InputSchema)},
		}})
	}
	if len(list) == 0 {
		return nil
	}
	return &brtypes.ToolConfiguration{Tools: list}
}

func lazyDocument(v any) document.Interface {
	return document.NewLazyDocument(&v)
}

func decodeDocumentRaw(doc document.Interface) json.RawMessage {
	if doc == nil {
		return json.RawMessage("{}")
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(data)
}

func decodeDocument(doc document.Interface) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(decodeDocumentRaw(doc), &m)
	return m
}
