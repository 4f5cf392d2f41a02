package domain

// AgentExecutionResult is the per-step output of executing one specialist,
// produced exactly once per step (spec §3).
type AgentExecutionResult struct {
	StepNumber         int            `json:"step_number"`
	AgentType          AgentType      `json:"agent_type"`
	Response           string         `json:"response"`
	Confidence         float64        `json:"confidence"`
	RequiresEscalation bool           `json:"requires_escalation"`
	ExecutionTimeMS    int64          `json:"execution_time_ms"`
	ToolResults        map[string]any `json:"tool_results,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// metadataFullOutputKey is the Metadata key under which the typed
// specialist output is copied verbatim (spec §4.2 step 3: "copy all typed
// fields into metadata.full_specialist_output").
const metadataFullOutputKey = "full_specialist_output"

// WithFullSpecialistOutput copies info into r.Metadata under
// "full_specialist_output" and returns r for chaining.
func (r AgentExecutionResult) WithFullSpecialistOutput(info AdditionalInfo) AgentExecutionResult {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[metadataFullOutputKey] = info
	return r
}

// FailedResult builds the AgentExecutionResult produced by a specialist
// execution error: empty response, zero confidence, forced escalation, and
// an "error" note in metadata (spec §4.2 failure semantics, §7 taxonomy #4).
func FailedResult(stepNumber int, agentType AgentType, err error) AgentExecutionResult {
	return AgentExecutionResult{
		StepNumber:         stepNumber,
		AgentType:          agentType,
		Response:           "",
		Confidence:         0,
		RequiresEscalation: true,
		Metadata:           map[string]any{"error": err.Error()},
	}
}

// SynthesisResult is the output of the LLM synthesize collaborator (spec
// §4.2 Phase 3).
type SynthesisResult struct {
	FinalResponse       string          `json:"final_response"`
	Confidence           float64         `json:"confidence"`
	InformationSources   []string        `json:"information_sources,omitempty"`
	RequiresEscalation   bool            `json:"requires_escalation"`
	RequiresFollowup     bool            `json:"requires_followup"`
	FollowupPlan         *ExecutionPlan  `json:"followup_plan,omitempty"`
	SynthesisReasoning   string          `json:"synthesis_reasoning,omitempty"`
}

// FallbackSynthesis concatenates agent responses verbatim and forces
// escalation, per the synthesis-failure error taxonomy entry (spec §7 #5).
func FallbackSynthesis(results []AgentExecutionResult) SynthesisResult {
	var out string
	for i, r := range results {
		if i > 0 {
			out += "\n\n"
		}
		out += r.Response
	}
	return SynthesisResult{
		FinalResponse:      out,
		Confidence:         0,
		RequiresEscalation: true,
		SynthesisReasoning: "fallback synthesis: concatenated agent responses after synthesis failure",
	}
}
