// Package workflows implements the Ticket Conductor, Orchestrator,
// Specialist, Question, and Maintenance Scheduler workflows against the
// engine.Engine abstraction, plus the activities they call.
package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// defaultQuestionTimeoutSeconds is used when a specialist's
// ask_user_question call and the activity's own configured default both
// omit a timeout (spec §4.4 default: 300 seconds).
const defaultQuestionTimeoutSeconds = 300

// questionWorkflowGrace bounds how much longer than its own timeout a
// Question Workflow's run is allowed, covering the time between its
// internal timer firing and it returning the timeout sentinel.
const questionWorkflowGrace = 30 * time.Second

// Workflow and activity names registered with the engine.
const (
	WorkflowTicketConductor = "ticket_conductor"
	WorkflowOrchestrator    = "orchestrator"
	WorkflowSpecialist      = "specialist"
	WorkflowQuestion        = "question"
	WorkflowMaintenance     = "maintenance_scheduler"

	ActivityPlan         = "plan"
	ActivitySynthesize    = "synthesize"
	ActivitySpecialistRun = "specialist_run"
	ActivityQueryState    = "query_ticket_state"
	ActivityMaintenance   = "maintenance_sweep"
	ActivitySignalRelay   = "signal_relay"
	ActivityPublishEvent  = "publish_ticket_event"
	ActivityArchiveTicket = "archive_ticket"
)

// Activity timeouts (spec §5 "Cancellation and timeouts"): specialist
// activities get a 5-minute start-to-close budget, plan/synthesize get 2
// minutes, and small bookkeeping activities (state re-query, signal relay)
// get a short fixed budget since they do no LLM work.
const (
	specialistActivityTimeout = 5 * time.Minute
	planSynthesizeTimeout     = 2 * time.Minute
	shortActivityTimeout      = 15 * time.Second
)

// orchestratorRunTimeout bounds a single Orchestrator run: planning,
// every staged specialist step, and synthesis, with headroom for retries.
const orchestratorRunTimeout = 30 * time.Minute

// shortActivityOptions overrides opts' StartToClose with shortActivityTimeout,
// used for bookkeeping activities that must never inherit a long-running
// specialist timeout from the caller's default ActivityOptions.
func shortActivityOptions(opts engine.ActivityOptions) engine.ActivityOptions {
	opts.StartToClose = shortActivityTimeout
	return opts
}

// TicketWorkflowID is the Ticket Conductor's workflow id (spec §6: "Ticket
// workflow id = ticket_id").
func TicketWorkflowID(ticketID string) string { return ticketID }

// OrchestratorWorkflowID builds the Orchestrator child id (spec §6:
// "<ticket_id>-orchestrator-<uuid>"). id must come from a replay-safe
// source (engine.WorkflowContext.NewUUID when called from workflow code);
// this function never generates one itself.
func OrchestratorWorkflowID(ticketID, id string) string {
	return fmt.Sprintf("%s-orchestrator-%s", ticketID, id)
}

// SpecialistWorkflowID builds the Specialist child id (spec §6:
// "<ticket_id>-<agent_type>-step<step_number>").
func SpecialistWorkflowID(ticketID string, agentType domain.AgentType, stepNumber int) string {
	return fmt.Sprintf("%s-%s-step%d", ticketID, strings.ToLower(string(agentType)), stepNumber)
}

// QuestionWorkflowID builds a Question Workflow id (spec §6:
// "<ticket_id>-question-<uuid>").
func QuestionWorkflowID(ticketID string) string {
	return fmt.Sprintf("%s-question-%s", ticketID, uuid.NewString())
}
