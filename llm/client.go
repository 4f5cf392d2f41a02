// Package llm defines the LLM collaborator interface used by the planner,
// synthesizer, and per-agent reasoning loop. Concrete backends
// (llm/anthropic, llm/openai, llm/bedrock) are selected by config.Config and
// injected into the orchestrator/specialist activities at construction
// time — never looked up from a global (spec §9 re-architecture point:
// "singleton-ish LLM client ... must be passed into constructors, not
// looked up from globals").
package llm

import (
	"context"

	"github.com/ticketflow/conductor/domain"
)

// Client is the out-of-core LLM collaborator contract (spec §2 row 3).
// Every method call is a single request/response round trip; retries and
// fallback behavior live in the calling activity per the error taxonomy
// (spec §7 #1), not in the Client implementation.
type Client interface {
	// Plan invokes the planning collaborator.
	Plan(ctx context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error)

	// Synthesize invokes the synthesis collaborator.
	Synthesize(ctx context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error)

	// Reason invokes the per-agent reasoning loop for one specialist step,
	// with the given tool set available for the agent to call.
	Reason(ctx context.Context, in domain.SpecialistInput, tools []Tool) (domain.SpecialistOutput, error)
}

// Tool is the subset of tools.Spec the llm package needs to describe a
// callable tool to the model and invoke it when the model calls it. Kept
// separate from package tools to avoid a dependency cycle (tools never
// needs to know about llm.Client).
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Invoke      func(ctx context.Context, args map[string]any) (any, error)
}
