package domain

// Signal and query names for the Ticket Conductor and Question Workflow.
// These names are part of the external contract (spec §6: "bit-exact,
// names are part of the contract") — never rename without a migration plan.
const (
	SignalAddMessage          = "addMessage"
	SignalUpdateTicketStatus  = "updateTicketStatus"
	SignalDisplayAgentQuestion = "display_agent_question"
	SignalQuestionTimeout     = "question_timeout"
	QueryGetState             = "getState"

	SignalReceiveAnswer = "receive_answer"
	QueryGetStatus      = "get_status"
)

// UpdateTicketStatusSignal is the payload for updateTicketStatus. Summary is
// optional free text an operator attaches when resolving or closing a
// ticket (e.g. an admin's resolution note or close reason); it is stored on
// the ticket only when the transition lands on a terminal status.
type UpdateTicketStatusSignal struct {
	Status  TicketStatus `json:"status"`
	Summary string       `json:"summary,omitempty"`
}

// QuestionTimeoutSignal is the payload for question_timeout.
type QuestionTimeoutSignal struct {
	QuestionID string `json:"question_id"`
}

// ReceiveAnswerSignal is the payload for a Question Workflow's
// receive_answer signal.
type ReceiveAnswerSignal struct {
	Answer string `json:"answer"`
}

// QuestionStatusResult is the result of a Question Workflow's get_status
// query.
type QuestionStatusResult struct {
	Answered bool    `json:"answered"`
	Answer   *string `json:"answer"`
}

// TicketStartInput is the input to a new Ticket Conductor workflow (spec
// §6: "{ticket_id, customer_id, initial_message, customer_profile}").
type TicketStartInput struct {
	TicketID        string         `json:"ticket_id"`
	CustomerID      string         `json:"customer_id"`
	InitialMessage  string         `json:"initial_message"`
	CustomerProfile map[string]any `json:"customer_profile,omitempty"`
}

// QuestionWorkflowInput is the input to a Question Workflow (spec §4.4).
type QuestionWorkflowInput struct {
	Question             string                `json:"question"`
	ParentWorkflowID      string                `json:"parent_workflow_id"`
	TicketID              string                `json:"ticket_id"`
	AgentType             AgentType             `json:"agent_type"`
	ExpectedResponseType  ExpectedResponseType  `json:"expected_response_type,omitempty"`
	TimeoutSeconds        int                   `json:"timeout_seconds"`
}

// QuestionWorkflowOutput is the result of a Question Workflow: the answer
// string, or the literal timeout marker (spec §4.4 steps 4-5).
type QuestionWorkflowOutput struct {
	Answer string `json:"answer"`
}

// OrchestratorInput is the input to an Orchestrator child workflow.
type OrchestratorInput struct {
	TicketID         string `json:"ticket_id"`
	ParentWorkflowID string `json:"parent_workflow_id"`
	CustomerMessage  string `json:"customer_message"`
}

// OrchestratorOutput is the result of an Orchestrator run.
type OrchestratorOutput struct {
	Synthesis SynthesisResult `json:"synthesis"`
}
