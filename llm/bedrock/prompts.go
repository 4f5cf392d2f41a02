package bedrock

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ticketflow/conductor/domain"
)

func planPrompt(in domain.PlanActivityInput) string {
	history, _ := json.Marshal(in.ConversationHistory)
	profile, _ := json.Marshal(in.CustomerProfile)
	agents := make([]string, len(in.AvailableAgents))
	for i, a := range in.AvailableAgents {
		agents[i] = string(a)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are the planning collaborator for a customer support ticket.\n")
	fmt.Fprintf(&b, "Ticket: %s\n", in.TicketID)
	fmt.Fprintf(&b, "Customer message: %s\n", in.CustomerMessage)
	fmt.Fprintf(&b, "Conversation history (JSON): %s\n", history)
	fmt.Fprintf(&b, "Customer profile (JSON): %s\n", profile)
	fmt.Fprintf(&b, "Available agent types: %s\n", strings.Join(agents, ", "))
	b.WriteString("Decide which specialist agents must run, in what order, and why. Call emit_plan exactly once.")
	return b.String()
}

func synthesizePrompt(in domain.SynthesizeActivityInput) string {
	results, _ := json.Marshal(in.Results)
	plan, _ := json.Marshal(in.Plan)
	var b strings.Builder
	fmt.Fprintf(&b, "You are the synthesis collaborator for a customer support ticket.\n")
	fmt.Fprintf(&b, "Ticket: %s\n", in.TicketID)
	fmt.Fprintf(&b, "Customer message: %s\n", in.CustomerMessage)
	fmt.Fprintf(&b, "Execution plan (JSON): %s\n", plan)
	fmt.Fprintf(&b, "Agent results (JSON): %s\n", results)
	fmt.Fprintf(&b, "Conversation context: %s\n", in.ConversationContext)
	b.WriteString("Combine the agent results into one customer-facing reply. Call emit_synthesis exactly once.")
	return b.String()
}

func reasonPrompt(in domain.SpecialistInput) string {
	fields, _ := json.Marshal(in.StructuredFields)
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s specialist for ticket %s, step %d.\n", in.AgentType, in.TicketID, in.StepNumber)
	fmt.Fprintf(&b, "Customer message: %s\n", in.CustomerMessage)
	fmt.Fprintf(&b, "Conversation context: %s\n", in.ConversationContext)
	fmt.Fprintf(&b, "Structured fields (JSON): %s\n", fields)
	b.WriteString("Use the available tools as needed, then respond with your final answer as plain text.")
	return b.String()
}

var planSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"step_number":        map[string]any{"type": "integer"},
					"agent_type":         map[string]any{"type": "string"},
					"reason":             map[string]any{"type": "string"},
					"depends_on":         map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
					"context_references": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"priority":           map[string]any{"type": "integer"},
				},
				"required": []string{"step_number", "agent_type", "reason"},
			},
		},
		"strategy":                   map[string]any{"type": "string"},
		"complexity_level":           map[string]any{"type": "string"},
		"estimated_duration_seconds": map[string]any{"type": "integer"},
		"reasoning":                  map[string]any{"type": "string"},
	},
	"required": []string{"steps", "strategy"},
}

var synthesisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"final_response":      map[string]any{"type": "string"},
		"confidence":          map[string]any{"type": "number"},
		"information_sources": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"requires_escalation": map[string]any{"type": "boolean"},
		"requires_followup":   map[string]any{"type": "boolean"},
		"synthesis_reasoning": map[string]any{"type": "string"},
	},
	"required": []string{"final_response", "confidence"},
}
