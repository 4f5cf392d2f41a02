package domain

// PlanActivityInput is the input to the plan activity (spec §2 row 3:
// "plan(query, history, profile, available_agents) -> ExecutionPlan").
type PlanActivityInput struct {
	TicketID         string        `json:"ticket_id"`
	CustomerMessage  string        `json:"customer_message"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
	CustomerProfile  map[string]any `json:"customer_profile,omitempty"`
	AvailableAgents  []AgentType   `json:"available_agents"`
}

// PlanActivityOutput is the plan activity's result.
type PlanActivityOutput struct {
	Plan ExecutionPlan `json:"plan"`
}

// SynthesizeActivityInput is the input to the synthesize activity (spec §2
// row 3: "synthesize(query, plan, results, context) -> SynthesisResult").
type SynthesizeActivityInput struct {
	TicketID          string                  `json:"ticket_id"`
	CustomerMessage   string                  `json:"customer_message"`
	Plan              ExecutionPlan           `json:"plan"`
	Results           []AgentExecutionResult  `json:"results"`
	ConversationContext string                `json:"conversation_context"`
}

// SynthesizeActivityOutput is the synthesize activity's result.
type SynthesizeActivityOutput struct {
	Synthesis SynthesisResult `json:"synthesis"`
}

// SpecialistInput is the structured, agent-type-specific input built by the
// Orchestrator for one ExecutionStep (spec §4.2 step 1c: "Wrap all that
// into the agent-type-specific input record"). Rather than one big
// kitchen-sink struct or a stringly-typed map, every agent receives the
// same envelope; ConversationContext (built per §4.2 step 1b) already
// contains everything an LLM-backed agent_reason call needs, and
// StructuredFields carries any additional caller-supplied arguments (e.g.
// an order id extracted during planning) as a small, explicitly-named map
// rather than free-form JSON.
type SpecialistInput struct {
	TicketID            string         `json:"ticket_id"`
	StepNumber          int            `json:"step_number"`
	AgentType           AgentType      `json:"agent_type"`
	CustomerMessage     string         `json:"customer_message"`
	ConversationContext string         `json:"conversation_context"`
	StructuredFields    map[string]any `json:"structured_fields,omitempty"`
}

// SpecialistOutput is agent_reason's structured return value (spec §2 row
// 3). ToolCallLog records the LLM interaction log for observability; it is
// never interpreted, only stored.
type SpecialistOutput struct {
	Response           string         `json:"response"`
	Confidence         float64        `json:"confidence"`
	RequiresEscalation bool           `json:"requires_escalation"`
	AdditionalInfo     AdditionalInfo `json:"additional_info,omitempty"`
	ToolResults        map[string]any `json:"tool_results,omitempty"`
	ToolCallLog        []string       `json:"tool_call_log,omitempty"`
}

// SpecialistActivityInput is the input to the single activity invoked by
// the Specialist Agent Workflow (spec §4.3).
type SpecialistActivityInput struct {
	Input SpecialistInput `json:"input"`
}

// SpecialistActivityOutput wraps SpecialistOutput for the activity
// boundary.
type SpecialistActivityOutput struct {
	Output SpecialistOutput `json:"output"`
}

// QueryStateActivityInput is the input to the re-query-parent activity used
// by the Orchestrator (spec §4.2 step 1a).
type QueryStateActivityInput struct {
	TicketWorkflowID string `json:"ticket_workflow_id"`
}

// MaintenanceReport is the Maintenance Scheduler activity's result (spec
// §4.5 step 5).
type MaintenanceReport struct {
	Evaluated         int      `json:"evaluated"`
	Closed            int      `json:"closed"`
	ClosedTicketIDs   []string `json:"closed_ticket_ids"`
	InactivityMinutes int      `json:"inactivity_minutes"`
}
