package openai

import (
	"context"
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/llm"
)

type fakeChatClient struct {
	responses []openai.ChatCompletionResponse
	calls     []openai.ChatCompletionRequest
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls = append(f.calls, req)
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		return openai.ChatCompletionResponse{}, nil
	}
	return f.responses[i], nil
}

func TestNewRequiresChatClient(t *testing.T) {
	_, err := New(nil, Options{DefaultModel: "gpt-x"})
	require.Error(t, err)
}

func TestNewRequiresDefaultModel(t *testing.T) {
	_, err := New(&fakeChatClient{}, Options{})
	require.Error(t, err)
}

func functionCallResponse(funcName string, args any) openai.ChatCompletionResponse {
	raw, _ := json.Marshal(args)
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{{
					ID:       "call-1",
					Function: openai.FunctionCall{Name: funcName, Arguments: string(raw)},
				}},
			},
		}},
	}
}

func TestClientPlanDecodesStructuredToolCall(t *testing.T) {
	plan := domain.ExecutionPlan{
		Strategy: domain.StrategySequential,
		Steps:    []domain.ExecutionStep{{StepNumber: 1, AgentType: domain.AgentGeneralSupport}},
	}
	fake := &fakeChatClient{responses: []openai.ChatCompletionResponse{functionCallResponse("emit_plan", plan)}}

	c, err := New(fake, Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	got, err := c.Plan(context.Background(), domain.PlanActivityInput{})
	require.NoError(t, err)
	require.Equal(t, domain.StrategySequential, got.Strategy)
	require.Len(t, got.Steps, 1)
}

func TestClientPlanErrorsWhenNoMatchingToolCall(t *testing.T) {
	fake := &fakeChatClient{responses: []openai.ChatCompletionResponse{functionCallResponse("wrong_function", map[string]any{})}}

	c, err := New(fake, Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	_, err = c.Plan(context.Background(), domain.PlanActivityInput{})
	require.Error(t, err)
}

func TestClientReasonReturnsTextWhenNoToolCalls(t *testing.T) {
	fake := &fakeChatClient{responses: []openai.ChatCompletionResponse{{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "all done"}}},
	}}}

	c, err := New(fake, Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	out, err := c.Reason(context.Background(), domain.SpecialistInput{}, nil)
	require.NoError(t, err)
	require.Equal(t, "all done", out.Response)
}

func TestClientReasonInvokesToolThenReturnsFinalText(t *testing.T) {
	fake := &fakeChatClient{responses: []openai.ChatCompletionResponse{
		functionCallResponse("search_orders", map[string]any{"query": "o1"}),
		{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "found your order"}}}},
	}}

	c, err := New(fake, Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	var invokedWith map[string]any
	tools := []llm.Tool{{
		Name: "search_orders",
		Invoke: func(_ context.Context, args map[string]any) (any, error) {
			invokedWith = args
			return map[string]any{"status": "shipped"}, nil
		},
	}}

	out, err := c.Reason(context.Background(), domain.SpecialistInput{}, tools)
	require.NoError(t, err)
	require.Equal(t, "found your order", out.Response)
	require.Equal(t, "o1", invokedWith["query"])
	require.Equal(t, map[string]any{"status": "shipped"}, out.ToolResults["search_orders"])
	require.Len(t, out.ToolCallLog, 1)
}

func TestClientReasonExceedsTurnsReturnsError(t *testing.T) {
	responses := make([]openai.ChatCompletionResponse, 0, maxReasoningTurns)
	for i := 0; i < maxReasoningTurns; i++ {
		responses = append(responses, functionCallResponse("search_orders", map[string]any{"query": "o1"}))
	}
	fake := &fakeChatClient{responses: responses}

	c, err := New(fake, Options{DefaultModel: "gpt-x"})
	require.NoError(t, err)

	tools := []llm.Tool{{
		Name:   "search_orders",
		Invoke: func(context.Context, map[string]any) (any, error) { return "ok", nil },
	}}

	_, err = c.Reason(context.Background(), domain.SpecialistInput{}, tools)
	require.Error(t, err)
}
