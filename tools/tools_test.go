package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoSpec(name string) Spec {
	return Spec{
		Name:        name,
		Description: "echoes its args",
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"query": map[string]any{"type": "string"}},
			"required":             []any{"query"},
			"additionalProperties": false,
		},
		Invoke: func(_ context.Context, args map[string]any) (any, error) {
			return args["query"], nil
		},
	}
}

func TestStaticProviderToolsForUnknownAgentType(t *testing.T) {
	p, err := NewStaticProvider(map[string][]Spec{"ORDER_SPECIALIST": {echoSpec("search_orders")}})
	require.NoError(t, err)
	require.Empty(t, p.ToolsFor("REFUND_SPECIALIST"))
}

func TestStaticProviderInvokeValidatesSchema(t *testing.T) {
	p, err := NewStaticProvider(map[string][]Spec{"ORDER_SPECIALIST": {echoSpec("search_orders")}})
	require.NoError(t, err)

	llmTools := p.ToolsFor("ORDER_SPECIALIST")
	require.Len(t, llmTools, 1)

	_, err = llmTools[0].Invoke(context.Background(), map[string]any{})
	require.Error(t, err, "missing required field should fail schema validation")

	result, err := llmTools[0].Invoke(context.Background(), map[string]any{"query": "order-1"})
	require.NoError(t, err)
	require.Equal(t, "order-1", result)
}

func TestStaticProviderRejectsMalformedSchemaAtConstruction(t *testing.T) {
	bad := Spec{
		Name:        "bad_tool",
		InputSchema: map[string]any{"$ref": "#/definitions/does_not_exist"},
		Invoke:      func(context.Context, map[string]any) (any, error) { return nil, nil },
	}
	_, err := NewStaticProvider(map[string][]Spec{"GENERAL_SUPPORT": {bad}})
	require.Error(t, err, "an unresolvable $ref must fail fast at construction, not on first tool call")
}

func TestStaticProviderNoSchemaSkipsValidation(t *testing.T) {
	noSchema := Spec{
		Name:   "no_schema",
		Invoke: func(context.Context, map[string]any) (any, error) { return "ok", nil },
	}
	p, err := NewStaticProvider(map[string][]Spec{"GENERAL_SUPPORT": {noSchema}})
	require.NoError(t, err)

	result, err := p.ToolsFor("GENERAL_SUPPORT")[0].Invoke(context.Background(), map[string]any{"anything": true})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
}
