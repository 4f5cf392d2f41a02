package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/hooks"
	"github.com/ticketflow/conductor/llm"
	"github.com/ticketflow/conductor/store"
	"github.com/ticketflow/conductor/tools"
)

// publishEventInput is the activity-local input for publishEvent: workflow
// code appends a ChatMessage or QuestionRecord to its own state and then
// fires this activity so a UI gateway subscribed to hooks can see it,
// without the workflow itself ever touching Redis.
type publishEventInput struct {
	TicketID string                 `json:"ticket_id"`
	Type     hooks.EventType        `json:"type"`
	Message  *domain.ChatMessage    `json:"message,omitempty"`
	Question *domain.QuestionRecord `json:"question,omitempty"`
}

// signalRelayInput is the activity-local input for signalRelay: workflow
// code (Question, Orchestrator, Ticket Conductor) can never call the engine
// directly — only through activities, to preserve replay determinism — so
// every cross-workflow signal it needs to send is routed through this one
// relay rather than one bespoke activity per signal name.
type signalRelayInput struct {
	WorkflowID string `json:"workflow_id"`
	SignalName string `json:"signal_name"`
	Payload    any    `json:"payload"`
}

// signalRelay delivers a single signal to another workflow by id via
// engine.Engine.SignalWorkflow.
func (a *Activities) signalRelay(ctx context.Context, input any) (any, error) {
	var in signalRelayInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode signal-relay input: %w", err)
	}
	if err := a.Eng.SignalWorkflow(ctx, in.WorkflowID, in.SignalName, in.Payload); err != nil {
		return nil, fmt.Errorf("signal %q on %q: %w", in.SignalName, in.WorkflowID, err)
	}
	return nil, nil
}

// maintenanceSweepInput is the activity-local input for maintenanceSweep.
// Now is passed in by the Maintenance Scheduler workflow (via its replay-safe
// WorkflowContext.Now) rather than read with time.Now inside the activity,
// so a sweep's idle computation is reproducible from the workflow history
// that triggered it.
type maintenanceSweepInput struct {
	Now               time.Time `json:"now"`
	InactivityMinutes int       `json:"inactivity_minutes"`
	ClosureMessage    string    `json:"closure_message"`
}

// engineQuestionAsker implements tools.QuestionAsker by starting a Question
// Workflow as a detached top-level run (spec §4.4: it outlives the
// specialist activity call that started it) and blocking on its result.
type engineQuestionAsker struct {
	eng            engine.Engine
	timeoutSeconds int
}

func (a *engineQuestionAsker) AskUserQuestion(ctx context.Context, ticketID, agentType, question, expectedResponseType string, timeoutSeconds int) (string, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = a.timeoutSeconds
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultQuestionTimeoutSeconds
	}
	input := domain.QuestionWorkflowInput{
		Question:             question,
		ParentWorkflowID:      ticketID,
		TicketID:              ticketID,
		AgentType:             domain.AgentType(agentType),
		ExpectedResponseType:  domain.ExpectedResponseType(expectedResponseType),
		TimeoutSeconds:        timeoutSeconds,
	}
	handle, err := a.eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:         QuestionWorkflowID(ticketID),
		Workflow:   WorkflowQuestion,
		Input:      input,
		RunTimeout: time.Duration(timeoutSeconds)*time.Second + questionWorkflowGrace,
	})
	if err != nil {
		return "", fmt.Errorf("start question workflow: %w", err)
	}
	var out domain.QuestionWorkflowOutput
	if err := handle.Wait(ctx, &out); err != nil {
		return "", fmt.Errorf("await question workflow: %w", err)
	}
	return out.Answer, nil
}

// Activities bundles the out-of-core collaborators (spec §1 "treated as
// external collaborators, interfaces only") every registered activity
// closes over: the LLM client, the tool provider, and the engine itself
// (for the re-query-parent and maintenance-sweep activities, which need to
// signal/query other workflows by id).
type Activities struct {
	LLM   llm.Client
	Tools tools.Provider
	Eng   engine.Engine

	// Hooks publishes chat-message and question events for UI gateways
	// (spec §6 ticket event stream). Nil disables publishing entirely,
	// which keeps tests that don't care about streaming from needing Redis.
	Hooks *hooks.Publisher

	// Archive persists a ticket's final snapshot once it reaches a terminal
	// status. Nil disables archival, which keeps tests that don't care about
	// the archive from needing a second store.
	Archive store.TicketArchive

	// QuestionTimeoutSeconds is used when a specialist's ask_user_question
	// call omits timeout_seconds.
	QuestionTimeoutSeconds int
}

// Register installs every activity this package defines with eng.
func (a *Activities) Register(ctx context.Context, eng engine.Engine, opts engine.ActivityOptions) error {
	defs := []engine.ActivityDefinition{
		{Name: ActivityPlan, Handler: a.plan, Options: opts},
		{Name: ActivitySynthesize, Handler: a.synthesize, Options: opts},
		{Name: ActivitySpecialistRun, Handler: a.specialistRun, Options: opts},
		{Name: ActivityQueryState, Handler: a.queryState, Options: opts},
		{Name: ActivityMaintenance, Handler: a.maintenanceSweep, Options: opts},
		{Name: ActivitySignalRelay, Handler: a.signalRelay, Options: shortActivityOptions(opts)},
		{Name: ActivityPublishEvent, Handler: a.publishEvent, Options: shortActivityOptions(opts)},
		{Name: ActivityArchiveTicket, Handler: a.archiveTicket, Options: shortActivityOptions(opts)},
	}
	for _, d := range defs {
		if err := eng.RegisterActivity(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// plan invokes the LLM planning collaborator (spec §4.2 Phase 1), retrying
// once on error (spec §7 #1: "transient LLM error — retried once by the
// activity layer") and falling back to the default single-step plan on a
// second failure.
func (a *Activities) plan(ctx context.Context, input any) (any, error) {
	var in domain.PlanActivityInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode plan input: %w", err)
	}
	plan, err := a.LLM.Plan(ctx, in)
	if err != nil {
		plan, err = a.LLM.Plan(ctx, in)
		if err != nil {
			plan = domain.DefaultPlan()
		}
	}
	plan.Normalize()
	if len(plan.Steps) == 0 {
		plan = domain.DefaultPlan()
	}
	return domain.PlanActivityOutput{Plan: plan}, nil
}

// synthesize invokes the LLM synthesis collaborator (spec §4.2 Phase 3),
// retrying once and falling back to FallbackSynthesis on a second failure
// (spec §7 #5).
func (a *Activities) synthesize(ctx context.Context, input any) (any, error) {
	var in domain.SynthesizeActivityInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode synthesize input: %w", err)
	}
	result, err := a.LLM.Synthesize(ctx, in)
	if err != nil {
		result, err = a.LLM.Synthesize(ctx, in)
		if err != nil {
			result = domain.FallbackSynthesis(in.Results)
		}
	}
	return domain.SynthesizeActivityOutput{Synthesis: result}, nil
}

// specialistRun invokes agent_reason for one specialist step (spec §4.3),
// with the tool set ToolsFor(agentType) returns plus, for agent types that
// CanAskQuestions, the ask_user_question tool bound to this ticket/agent
// pair and backed by asker. No retries (at-most-once, spec §4.3).
func (a *Activities) specialistRun(ctx context.Context, input any) (any, error) {
	var in domain.SpecialistActivityInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode specialist input: %w", err)
	}
	toolSet := a.Tools.ToolsFor(string(in.Input.AgentType))
	if in.Input.AgentType.CanAskQuestions() {
		asker := &engineQuestionAsker{eng: a.Eng, timeoutSeconds: a.QuestionTimeoutSeconds}
		qt := tools.NewAskUserQuestionTool(asker, in.Input.TicketID, string(in.Input.AgentType))
		toolSet = append(toolSet, llm.Tool{
			Name:        qt.Name,
			Description: qt.Description,
			InputSchema: qt.InputSchema,
			Invoke:      qt.Invoke,
		})
	}
	out, err := a.LLM.Reason(ctx, in.Input, toolSet)
	if err != nil {
		return nil, fmt.Errorf("agent_reason(%s): %w", in.Input.AgentType, err)
	}
	return domain.SpecialistActivityOutput{Output: out}, nil
}

// queryState re-queries the Ticket Conductor's current state (spec §4.2
// step 1a: "pick up any conversation turns that arrived after orchestration
// began").
func (a *Activities) queryState(ctx context.Context, input any) (any, error) {
	var in domain.QueryStateActivityInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode query-state input: %w", err)
	}
	var ticket domain.Ticket
	if err := a.Eng.QueryWorkflow(ctx, in.TicketWorkflowID, domain.QueryGetState, nil, &ticket); err != nil {
		return nil, fmt.Errorf("query ticket state %q: %w", in.TicketWorkflowID, err)
	}
	return ticket, nil
}

// maintenanceSweep implements the Maintenance Scheduler's activity body
// (spec §4.5): enumerate running Ticket Conductor workflows, auto-close
// those idle past inactivityMinutes.
func (a *Activities) maintenanceSweep(ctx context.Context, input any) (any, error) {
	var in maintenanceSweepInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode maintenance-sweep input: %w", err)
	}
	ids, err := a.Eng.ListWorkflows(ctx, WorkflowTicketConductor)
	if err != nil {
		return nil, fmt.Errorf("list ticket workflows: %w", err)
	}

	report := domain.MaintenanceReport{InactivityMinutes: in.InactivityMinutes}
	threshold := in.Now.Add(-time.Duration(in.InactivityMinutes) * time.Minute)

	for _, id := range ids {
		report.Evaluated++
		var ticket domain.Ticket
		if err := a.Eng.QueryWorkflow(ctx, id, domain.QueryGetState, nil, &ticket); err != nil {
			continue
		}
		if ticket.Status != domain.StatusOpen {
			continue
		}
		if ticket.LastActivity().After(threshold) {
			continue
		}
		closeMsg := domain.ChatMessage{
			TicketID:    id,
			Content:     in.ClosureMessage,
			MessageType: domain.MessageSystem,
			Timestamp:   in.Now,
		}
		if err := a.Eng.SignalWorkflow(ctx, id, domain.SignalAddMessage, closeMsg); err != nil {
			continue
		}
		if err := a.Eng.SignalWorkflow(ctx, id, domain.SignalUpdateTicketStatus,
			domain.UpdateTicketStatusSignal{Status: domain.StatusClosed}); err != nil {
			continue
		}
		report.Closed++
		report.ClosedTicketIDs = append(report.ClosedTicketIDs, id)
	}
	return report, nil
}

// publishEvent forwards a single chat-message or question event to the
// hooks event stream. A nil Hooks (no Redis wired) makes this a no-op
// rather than an error, since event streaming is a UI convenience, not part
// of the ticket's durable state.
func (a *Activities) publishEvent(ctx context.Context, input any) (any, error) {
	if a.Hooks == nil {
		return nil, nil
	}
	var in publishEventInput
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode publish-event input: %w", err)
	}
	switch {
	case in.Message != nil:
		return nil, a.Hooks.PublishChatMessage(ctx, in.TicketID, *in.Message)
	case in.Question != nil:
		return nil, a.Hooks.PublishQuestionAsked(ctx, in.TicketID, *in.Question)
	default:
		return nil, nil
	}
}

// archiveTicket persists ticket's final snapshot once the Ticket Conductor
// has reached a terminal status. A nil Archive (no second store wired)
// makes this a no-op, since the archive is a read-side convenience for
// operators and analytics, not part of the workflow's own durable state.
func (a *Activities) archiveTicket(ctx context.Context, input any) (any, error) {
	if a.Archive == nil {
		return nil, nil
	}
	var ticket domain.Ticket
	if err := decodeInto(input, &ticket); err != nil {
		return nil, fmt.Errorf("decode archive-ticket input: %w", err)
	}
	return nil, a.Archive.Archive(ctx, ticket)
}
