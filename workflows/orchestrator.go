package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// childWorkflowGrace is a Specialist child workflow's whole run timeout: its
// activity's own start-to-close timeout plus 30 seconds, covering Temporal
// scheduling overhead around the single activity call it makes.
const childWorkflowGrace = specialistActivityTimeout + 30*time.Second

// Orchestrator is the per-message planning/execution/synthesis workflow
// (spec §4.2): plan, stage and execute the resulting DAG of specialist
// calls, then synthesize one reply and stream progress back to the Ticket
// Conductor throughout.
func Orchestrator(ctx engine.WorkflowContext, rawInput any) (any, error) {
	var input domain.OrchestratorInput
	if err := decodeInto(rawInput, &input); err != nil {
		return nil, err
	}

	ticket, err := queryTicket(ctx, input.ParentWorkflowID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: initial state query: %w", err)
	}

	// Phase 1 — Planning.
	planCtx, planSpan := ctx.Tracer().Start(ctx.Context(), "orchestrator.plan")
	var planOut domain.PlanActivityOutput
	planErr := ctx.ExecuteActivity(planCtx, engine.ActivityRequest{
		Name: ActivityPlan,
		Input: domain.PlanActivityInput{
			TicketID:            input.TicketID,
			CustomerMessage:     input.CustomerMessage,
			ConversationHistory: ticket.ChatHistory,
			CustomerProfile:     ticket.CustomerProfile,
			AvailableAgents:     domain.PlannableAgentTypes,
		},
		Timeout: planSynthesizeTimeout,
	}, &planOut)
	if planErr != nil {
		planSpan.RecordError(planErr)
	}
	planSpan.End()
	if planErr != nil {
		return nil, fmt.Errorf("orchestrator: plan activity: %w", planErr)
	}
	plan := planOut.Plan

	if err := addMessage(ctx, input.ParentWorkflowID, domain.ChatMessage{
		TicketID:    input.TicketID,
		Content:     summarizePlan(plan),
		MessageType: domain.MessageSystem,
		Timestamp:   ctx.Now(),
		Metadata: map[string]any{
			"plan_strategy":    string(plan.Strategy),
			"plan_step_count":  len(plan.Steps),
			"complexity_level": plan.ComplexityLevel,
		},
	}); err != nil {
		return nil, err
	}

	// Phase 2 — Execution.
	stages, ok := plan.Stages()
	if !ok {
		ctx.Logger().Warn(ctx.Context(), "plan has cyclic or missing dependencies; running remaining steps as a best-effort final stage",
			"ticket_id", input.TicketID)
	}

	byNum := make(map[int]domain.ExecutionStep, len(plan.Steps))
	dependents := make(map[int][]domain.AgentType, len(plan.Steps))
	for _, s := range plan.Steps {
		byNum[s.StepNumber] = s
	}
	for _, s := range plan.Steps {
		for _, d := range s.DependsOn {
			dependents[d] = append(dependents[d], s.AgentType)
		}
	}

	historyText := formatChatHistory(ticket.ChatHistory)
	executionContext := map[string]domain.AgentExecutionResult{}
	var results []domain.AgentExecutionResult

	for stageNum, stage := range stages {
		_, stageSpan := ctx.Tracer().Start(ctx.Context(), "orchestrator.stage")
		stageSpan.AddEvent("stage_steps", "stage", stageNum, "step_count", len(stage))

		type pending struct {
			stepNumber int
			agentType  domain.AgentType
			handle     engine.ChildWorkflowHandle
		}
		var inFlight []pending

		for _, stepNum := range stage {
			step := byNum[stepNum]

			// Re-query the parent's current state (spec §4.2 step 1a) so a
			// customer answer delivered mid-plan is visible to this step.
			fresh, err := queryTicket(ctx, input.ParentWorkflowID)
			if err != nil {
				fresh = ticket
			}

			specialistInput := domain.SpecialistInput{
				TicketID:            input.TicketID,
				StepNumber:          step.StepNumber,
				AgentType:           step.AgentType,
				CustomerMessage:     input.CustomerMessage,
				ConversationContext: buildConversationContext(historyText, input.CustomerMessage, step, dependents[step.StepNumber], fresh, executionContext),
			}

			handle, err := ctx.StartChildWorkflow(ctx.Context(), engine.ChildWorkflowRequest{
				ID:         SpecialistWorkflowID(input.TicketID, step.AgentType, step.StepNumber),
				Workflow:   WorkflowSpecialist,
				Input:      specialistInput,
				RunTimeout: childWorkflowGrace,
			})
			if err != nil {
				// Step could not even be scheduled: record as a failure and
				// move on, matching the captured-execution-error semantics
				// for an in-flight failure (spec §7 #4).
				result := domain.FailedResult(step.StepNumber, step.AgentType, err)
				executionContext[domain.ContextKey(step.StepNumber)] = result
				results = append(results, result)
				continue
			}
			inFlight = append(inFlight, pending{stepNumber: step.StepNumber, agentType: step.AgentType, handle: handle})
		}

		for _, p := range inFlight {
			step := byNum[p.stepNumber]
			var out domain.SpecialistOutput
			getErr := p.handle.Get(ctx.Context(), &out)

			var result domain.AgentExecutionResult
			if getErr != nil {
				result = domain.FailedResult(step.StepNumber, step.AgentType, getErr)
			} else {
				result = domain.AgentExecutionResult{
					StepNumber:         step.StepNumber,
					AgentType:          step.AgentType,
					Response:           out.Response,
					Confidence:         out.Confidence,
					RequiresEscalation: out.RequiresEscalation,
					ToolResults:        out.ToolResults,
				}.WithFullSpecialistOutput(out.AdditionalInfo)
			}
			executionContext[domain.ContextKey(step.StepNumber)] = result
			results = append(results, result)

			msg := domain.ChatMessage{
				TicketID:    input.TicketID,
				Content:     result.Response,
				MessageType: domain.MessageAIAgent,
				AgentType:   step.AgentType,
				Timestamp:   ctx.Now(),
				Metadata: map[string]any{
					"step_number":         step.StepNumber,
					"confidence":          result.Confidence,
					"requires_escalation": result.RequiresEscalation,
				},
			}
			if getErr == nil {
				msg.AdditionalInfo = out.AdditionalInfo
			}
			if err := addMessage(ctx, input.ParentWorkflowID, msg); err != nil {
				stageSpan.RecordError(err)
				stageSpan.End()
				return nil, err
			}
		}
		stageSpan.End()
	}

	// Phase 3 — Synthesis.
	synthCtx, synthSpan := ctx.Tracer().Start(ctx.Context(), "orchestrator.synthesize")
	var synthOut domain.SynthesizeActivityOutput
	synthErr := ctx.ExecuteActivity(synthCtx, engine.ActivityRequest{
		Name: ActivitySynthesize,
		Input: domain.SynthesizeActivityInput{
			TicketID:            input.TicketID,
			CustomerMessage:     input.CustomerMessage,
			Plan:                plan,
			Results:             results,
			ConversationContext: historyText,
		},
		Timeout: planSynthesizeTimeout,
	}, &synthOut)
	if synthErr != nil {
		synthSpan.RecordError(synthErr)
	}
	synthSpan.End()
	if synthErr != nil {
		return nil, fmt.Errorf("orchestrator: synthesize activity: %w", synthErr)
	}
	synthesis := synthOut.Synthesis

	if err := addMessage(ctx, input.ParentWorkflowID, domain.ChatMessage{
		TicketID:    input.TicketID,
		Content:     synthesis.FinalResponse,
		MessageType: domain.MessageAIAgent,
		AgentType:   domain.AgentOrchestrator,
		Timestamp:   ctx.Now(),
		Metadata: map[string]any{
			"confidence":           synthesis.Confidence,
			"requires_escalation":  synthesis.RequiresEscalation,
			"requires_followup":    synthesis.RequiresFollowup,
			"information_sources":  synthesis.InformationSources,
			"synthesis_reasoning":  synthesis.SynthesisReasoning,
		},
	}); err != nil {
		return nil, err
	}

	// requires_followup/followup_plan is advisory only (spec §9 open
	// question, decided): it is surfaced in the ORCHESTRATOR message's
	// metadata above for an operator or future orchestration to act on, but
	// this run never executes it automatically.
	if synthesis.RequiresEscalation {
		if err := updateTicketStatus(ctx, input.ParentWorkflowID, domain.StatusEscalatedToHuman); err != nil {
			return nil, err
		}
	}

	return domain.OrchestratorOutput{Synthesis: synthesis}, nil
}

// queryTicket re-queries the Ticket Conductor's current state via the
// query_ticket_state activity (spec §4.2 step 1a).
func queryTicket(ctx engine.WorkflowContext, ticketWorkflowID string) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name:    ActivityQueryState,
		Input:   domain.QueryStateActivityInput{TicketWorkflowID: ticketWorkflowID},
		Timeout: shortActivityTimeout,
	}, &ticket)
	return ticket, err
}

// addMessage relays an addMessage signal to the Ticket Conductor.
func addMessage(ctx engine.WorkflowContext, ticketWorkflowID string, msg domain.ChatMessage) error {
	return ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: ticketWorkflowID,
			SignalName: domain.SignalAddMessage,
			Payload:    msg,
		},
		Timeout: shortActivityTimeout,
	}, nil)
}

// updateTicketStatus relays an updateTicketStatus signal to the Ticket
// Conductor.
func updateTicketStatus(ctx engine.WorkflowContext, ticketWorkflowID string, status domain.TicketStatus) error {
	return ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: ticketWorkflowID,
			SignalName: domain.SignalUpdateTicketStatus,
			Payload:    domain.UpdateTicketStatusSignal{Status: status},
		},
		Timeout: shortActivityTimeout,
	}, nil)
}

// summarizePlan renders the SYSTEM chat message announcing a new plan
// (spec §4.2 Phase 1: "summarizing the plan (complexity, strategy, agent
// list, reasoning)").
func summarizePlan(plan domain.ExecutionPlan) string {
	var agents []string
	for _, s := range plan.Steps {
		agents = append(agents, string(s.AgentType))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %s strategy, %d step(s) [%s]", plan.Strategy, len(plan.Steps), strings.Join(agents, ", "))
	if plan.ComplexityLevel != "" {
		fmt.Fprintf(&b, ", complexity=%s", plan.ComplexityLevel)
	}
	if plan.Reasoning != "" {
		fmt.Fprintf(&b, ". %s", plan.Reasoning)
	}
	return b.String()
}

// formatChatHistory renders a ticket's chat history as the prior-turns text
// every conversation_context is built from (spec §4.2 step 1b).
func formatChatHistory(history []domain.ChatMessage) string {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "[%s] %s\n", m.MessageType, m.Content)
	}
	return b.String()
}

// buildConversationContext composes the per-step conversation_context
// string (spec §4.2 step 1b): prior chat, the current customer message, a
// workflow-context note naming downstream agents depending on this step,
// and an "information from previous agents" section drawn from
// ContextReferences.
func buildConversationContext(historyText, customerMessage string, step domain.ExecutionStep, dependents []domain.AgentType, ticket domain.Ticket, executionContext map[string]domain.AgentExecutionResult) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	b.WriteString(historyText)
	fmt.Fprintf(&b, "\nCustomer message: %s\n", customerMessage)

	if len(dependents) > 0 {
		names := make([]string, len(dependents))
		for i, a := range dependents {
			names[i] = string(a)
		}
		fmt.Fprintf(&b, "\nWorkflow context: this step's output will be used by: %s. Avoid prematurely escalating; a later agent may resolve remaining concerns.\n", strings.Join(names, ", "))
	}

	if len(step.ContextReferences) > 0 {
		b.WriteString("\nInformation from previous agents:\n")
		for _, ref := range step.ContextReferences {
			result, ok := executionContext[ref]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s (step %d): %s", result.AgentType, result.StepNumber, result.Response)
			if len(result.ToolResults) > 0 {
				fmt.Fprintf(&b, " [tool results: %v]", result.ToolResults)
			}
			b.WriteString("\n")
		}
	}

	if ticket.AwaitingQuestionID == "" && len(ticket.PendingQuestions) > 0 {
		for _, q := range ticket.PendingQuestions {
			if q.Status == domain.QuestionAnswered {
				fmt.Fprintf(&b, "\nPreviously answered clarifying question (%s): %q -> %q\n", q.AgentType, q.Question, q.Response)
			}
		}
	}

	return b.String()
}
