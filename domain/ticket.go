// Package domain holds the durable data model shared by every workflow in
// the conductor: Ticket, ChatMessage, ExecutionPlan, AgentExecutionResult,
// and QuestionRecord. Types in this package cross workflow/activity/signal
// boundaries, so every field here must round-trip through JSON: the one
// interface-typed field (ChatMessage.AdditionalInfo) goes through its own
// tagged envelope codec, there is no unexported state, and every enum is a typed
// string constant rather than an int so a stale worker's history replay
// never misdecodes it.
package domain

import "time"

// TicketStatus is the lifecycle status of a Ticket.
type TicketStatus string

const (
	StatusOpen                TicketStatus = "OPEN"
	StatusWaitingForCustomer  TicketStatus = "WAITING_FOR_CUSTOMER"
	StatusInProgress          TicketStatus = "IN_PROGRESS"
	StatusEscalatedToHuman    TicketStatus = "ESCALATED_TO_HUMAN"
	StatusResolved            TicketStatus = "RESOLVED"
	StatusClosed              TicketStatus = "CLOSED"
)

// Terminal reports whether s is a terminal ticket status. Per invariant I2,
// status never transitions out of a terminal status.
func (s TicketStatus) Terminal() bool {
	return s == StatusClosed || s == StatusResolved
}

// UrgencyLevel is the customer-perceived urgency of a ticket.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// Ticket is the primary durable entity, owned exclusively by the Ticket
// Conductor workflow. No other component mutates it; it is exposed
// read-only via the getState query.
type Ticket struct {
	TicketID          string            `json:"ticket_id"`
	CustomerID        string            `json:"customer_id"`
	CustomerProfile   map[string]any    `json:"customer_profile,omitempty"`
	Status            TicketStatus      `json:"status"`
	CurrentIntent     string            `json:"current_intent,omitempty"`
	UrgencyLevel      UrgencyLevel      `json:"urgency_level"`
	AssignedAgentType AgentType         `json:"assigned_agent_type,omitempty"`
	Context           map[string]any    `json:"context,omitempty"`
	ChatHistory       []ChatMessage     `json:"chat_history"`
	PendingQuestions  map[string]QuestionRecord `json:"pending_questions"`

	// AwaitingQuestionID holds the Question Workflow id currently awaiting
	// an answer, or "" if none. Single-slot per the awaiting-answer marker
	// invariant (I3).
	AwaitingQuestionID string `json:"awaiting_question_id,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	FailedAttempts   int `json:"failed_attempts"`
	EscalationCount  int `json:"escalation_count"`

	EscalationReason   string `json:"escalation_reason,omitempty"`
	ResolutionSummary  string `json:"resolution_summary,omitempty"`
	SatisfactionScore  *float64 `json:"satisfaction_score,omitempty"`
}

// NewTicket constructs a fresh Ticket in status OPEN for the given start
// input, ready to receive the initial customer message.
func NewTicket(ticketID, customerID string, profile map[string]any, now time.Time) *Ticket {
	return &Ticket{
		TicketID:         ticketID,
		CustomerID:       customerID,
		CustomerProfile:  profile,
		Status:           StatusOpen,
		UrgencyLevel:     UrgencyMedium,
		Context:          map[string]any{},
		ChatHistory:      []ChatMessage{},
		PendingQuestions: map[string]QuestionRecord{},
		CreatedAt:        now,
		LastUpdated:      now,
	}
}

// LastActivity returns the most recent of LastUpdated and every chat
// message timestamp, per the Maintenance Scheduler's idle computation
// (spec §4.5).
func (t *Ticket) LastActivity() time.Time {
	latest := t.LastUpdated
	for _, m := range t.ChatHistory {
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return latest
}

// allowedTransitions enumerates the non-terminal status graph from spec §4.1:
// "any non-terminal -> RESOLVED or CLOSED; any non-terminal -> ESCALATED_TO_HUMAN;
// OPEN <-> IN_PROGRESS <-> WAITING_FOR_CUSTOMER". A terminal status only
// accepts a further signal re-asserting that same status (I2: status never
// transitions out of CLOSED or RESOLVED, including into the other terminal
// status) and rejects everything else.
func (t *Ticket) CanTransitionTo(next TicketStatus) bool {
	if t.Status.Terminal() {
		// Idempotent re-application of the same terminal status is accepted
		// so duplicate signals are harmless (see §7 taxonomy #7); moving to
		// the *other* terminal status is still a transition out and is not.
		return next == t.Status
	}
	switch next {
	case StatusResolved, StatusClosed, StatusEscalatedToHuman:
		return true
	case StatusOpen, StatusInProgress, StatusWaitingForCustomer:
		return true
	default:
		return false
	}
}
