// Package tools defines the specialist tool contract: a tool is a named,
// schema-validated function a specialist agent can call during its
// reasoning loop (spec §4.3 "Tools: zero or more domain-specific tools").
// Tool invocation goes through the Invoke of the llm.Tool a StaticProvider
// returns, so the JSON Schema on a tool's input is enforced uniformly
// regardless of which llm backend is driving the specialist, mirroring how
// the registry validates tool payloads before publishing a call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ticketflow/conductor/llm"
)

type (
	// Spec describes one callable tool: its JSON Schema input contract and
	// the function that executes it.
	Spec struct {
		Name        string
		Description string
		InputSchema map[string]any
		Invoke      func(ctx context.Context, args map[string]any) (any, error)
	}

	// Provider resolves the tool set available to a specialist agent type.
	// Each returned llm.Tool carries its own Invoke; there is no by-name
	// invocation on the Provider itself.
	Provider interface {
		// ToolsFor returns the tools registered for agentType, in the
		// domain-independent shape llm.Client needs to describe them to a
		// model.
		ToolsFor(agentType string) []llm.Tool
	}

	// StaticProvider is a Provider backed by a fixed, in-process registry
	// keyed by agent type, configured once at startup.
	StaticProvider struct {
		byAgentType map[string][]Spec
		schemas     map[string]*jsonschema.Schema
	}
)

// NewStaticProvider compiles the JSON Schema of every tool up front so a
// malformed schema fails fast at construction rather than on first use, and
// wraps each Spec's Invoke with schema validation.
func NewStaticProvider(byAgentType map[string][]Spec) (*StaticProvider, error) {
	p := &StaticProvider{
		byAgentType: map[string][]Spec{},
		schemas:     map[string]*jsonschema.Schema{},
	}
	for agentType, specs := range byAgentType {
		out := make([]Spec, 0, len(specs))
		for _, s := range specs {
			schema, err := compileSchema(s.Name, s.InputSchema)
			if err != nil {
				return nil, err
			}
			p.schemas[key(agentType, s.Name)] = schema
			out = append(out, s)
		}
		p.byAgentType[agentType] = out
	}
	return p, nil
}

// ToolsFor returns the llm.Tool descriptors for agentType, each wrapping the
// underlying Spec's Invoke with JSON Schema validation of its arguments.
func (p *StaticProvider) ToolsFor(agentType string) []llm.Tool {
	specs := p.byAgentType[agentType]
	if len(specs) == 0 {
		return nil
	}
	out := make([]llm.Tool, 0, len(specs))
	for _, s := range specs {
		s := s
		schema := p.schemas[key(agentType, s.Name)]
		out = append(out, llm.Tool{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: s.InputSchema,
			Invoke: func(ctx context.Context, args map[string]any) (any, error) {
				if schema != nil {
					if err := schema.Validate(args); err != nil {
						return nil, fmt.Errorf("tool %q: invalid arguments: %w", s.Name, err)
					}
				}
				return s.Invoke(ctx, args)
			},
		})
	}
	return out
}

func key(agentType, name string) string { return agentType + "." + name }

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("tool %q: marshal schema: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tool %q: unmarshal schema: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	resource := "tool://" + name + ".json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("tool %q: add schema resource: %w", name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", name, err)
	}
	return compiled, nil
}
