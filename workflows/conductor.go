package workflows

import (
	"fmt"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// TicketConductor is the per-ticket durable workflow (spec §4.1). It owns
// the Ticket's entire lifecycle: it queues inbound customer messages,
// dispatches them one at a time to an Orchestrator child workflow, applies
// the signals that arrive from the Orchestrator, the Question Workflow, and
// external callers (addMessage, updateTicketStatus, display_agent_question,
// question_timeout), and exits once the ticket reaches a terminal status
// with no Orchestrator still in flight.
func TicketConductor(ctx engine.WorkflowContext, rawInput any) (any, error) {
	var input domain.TicketStartInput
	if err := decodeInto(rawInput, &input); err != nil {
		return nil, err
	}

	ticket := domain.NewTicket(input.TicketID, input.CustomerID, input.CustomerProfile, ctx.Now())

	addMsgCh := ctx.SignalChannel(domain.SignalAddMessage)
	statusCh := ctx.SignalChannel(domain.SignalUpdateTicketStatus)
	questionCh := ctx.SignalChannel(domain.SignalDisplayAgentQuestion)
	timeoutCh := ctx.SignalChannel(domain.SignalQuestionTimeout)

	if err := ctx.SetQueryHandler(domain.QueryGetState, func() (domain.Ticket, error) {
		return cloneTicket(ticket), nil
	}); err != nil {
		return nil, err
	}

	var queue []domain.ChatMessage
	initialMsg := nextMessage(ctx, ticket, domain.ChatMessage{
		TicketID:    input.TicketID,
		Content:     input.InitialMessage,
		MessageType: domain.MessageCustomer,
	})
	ticket.ChatHistory = append(ticket.ChatHistory, initialMsg)
	publishChatMessage(ctx, ticket, initialMsg)
	queue = append(queue, initialMsg)

	var active engine.ChildWorkflowHandle

	for {
		// Dispatch the next queued message if nothing is already running,
		// no question is blocking the conversation, and the ticket hasn't
		// closed out from under us.
		if active == nil && ticket.AwaitingQuestionID == "" && !ticket.Status.Terminal() && len(queue) > 0 {
			msg := queue[0]
			queue = queue[1:]
			handle, err := ctx.StartChildWorkflow(ctx.Context(), engine.ChildWorkflowRequest{
				ID:         OrchestratorWorkflowID(input.TicketID, ctx.NewUUID()),
				Workflow:   WorkflowOrchestrator,
				Input:      domain.OrchestratorInput{TicketID: input.TicketID, ParentWorkflowID: ctx.WorkflowID(), CustomerMessage: msg.Content},
				RunTimeout: orchestratorRunTimeout,
			})
			if err != nil {
				ticket.FailedAttempts++
				failMsg := nextMessage(ctx, ticket, domain.ChatMessage{
					TicketID:    input.TicketID,
					Content:     "Orchestration failed to start: " + err.Error(),
					MessageType: domain.MessageSystem,
				})
				ticket.ChatHistory = append(ticket.ChatHistory, failMsg)
				publishChatMessage(ctx, ticket, failMsg)
				ticket.LastUpdated = ctx.Now()
			} else {
				active = handle
				ctx.Metrics().IncCounter("conductor_messages_dispatched", 1)
			}
		}

		if ticket.Status.Terminal() && active == nil {
			final := cloneTicket(ticket)
			archiveTicket(ctx, final)
			return final, nil
		}

		var (
			gotSignal bool
			sigKind   string
			addMsg    domain.ChatMessage
			statusSig domain.UpdateTicketStatusSignal
			question  domain.QuestionRecord
			timeout   domain.QuestionTimeoutSignal
		)
		if err := ctx.Await(ctx.Context(), func() bool {
			if active != nil && active.IsReady() {
				return true
			}
			switch {
			case addMsgCh.ReceiveAsync(&addMsg):
				sigKind, gotSignal = "addMessage", true
			case statusCh.ReceiveAsync(&statusSig):
				sigKind, gotSignal = "updateStatus", true
			case questionCh.ReceiveAsync(&question):
				sigKind, gotSignal = "displayQuestion", true
			case timeoutCh.ReceiveAsync(&timeout):
				sigKind, gotSignal = "questionTimeout", true
			}
			return gotSignal
		}); err != nil {
			return nil, err
		}

		if active != nil && active.IsReady() {
			applyOrchestratorResult(ctx, ticket, &active)
			continue
		}

		switch sigKind {
		case "addMessage":
			applyAddMessage(ctx, ticket, &queue, addMsg)
		case "updateStatus":
			applyUpdateStatus(ctx, ticket, statusSig.Status, statusSig.Summary)
		case "displayQuestion":
			applyDisplayQuestion(ctx, ticket, question)
		case "questionTimeout":
			applyQuestionTimeout(ctx, ticket, timeout.QuestionID)
		}
	}
}

// nextMessage fills in a ChatMessage's id and timestamp if the caller left
// them zero, deterministically from replay-safe workflow state.
func nextMessage(ctx engine.WorkflowContext, ticket *domain.Ticket, msg domain.ChatMessage) domain.ChatMessage {
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s-msg-%d", ticket.TicketID, len(ticket.ChatHistory)+1)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = ctx.Now()
	}
	return msg
}

// applyAddMessage implements the addMessage dispatch policy (spec §4.1).
// A terminal ticket ignores the signal outright (§7 taxonomy #7). Visibility
// messages (SYSTEM, AI_AGENT, HUMAN_AGENT) are recorded but never redispatch
// the Orchestrator. A CUSTOMER message either answers the single pending
// question (routed to its Question Workflow via signal_relay) or, when
// nothing is awaiting an answer, is queued for the next Orchestrator run.
func applyAddMessage(ctx engine.WorkflowContext, ticket *domain.Ticket, queue *[]domain.ChatMessage, msg domain.ChatMessage) {
	if ticket.Status.Terminal() {
		return
	}
	msg = nextMessage(ctx, ticket, msg)
	ticket.ChatHistory = append(ticket.ChatHistory, msg)
	ticket.LastUpdated = msg.Timestamp
	publishChatMessage(ctx, ticket, msg)

	if msg.MessageType != domain.MessageCustomer {
		return
	}

	if ticket.AwaitingQuestionID == "" {
		*queue = append(*queue, msg)
		return
	}

	qID := ticket.AwaitingQuestionID
	if rec, ok := ticket.PendingQuestions[qID]; ok {
		now := ctx.Now()
		rec.Status = domain.QuestionAnswered
		rec.Response = msg.Content
		rec.RespondedAt = &now
		ticket.PendingQuestions[qID] = rec
	}
	ticket.AwaitingQuestionID = ""
	advanceAwaitingQuestion(ticket)

	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: qID,
			SignalName: domain.SignalReceiveAnswer,
			Payload:    domain.ReceiveAnswerSignal{Answer: msg.Content},
		},
		Timeout: shortActivityTimeout,
	}, nil)
}

// applyUpdateStatus implements the updateTicketStatus signal (spec §4.1,
// §7 taxonomy #8: unknown/disallowed transitions are logged and dropped).
// Per spec §5, closing or resolving a ticket does not cancel an in-flight
// Orchestrator — the conductor keeps waiting for it — but it does force any
// Question Workflow currently awaiting an answer to time out immediately,
// since the customer can no longer answer a closed ticket.
func applyUpdateStatus(ctx engine.WorkflowContext, ticket *domain.Ticket, next domain.TicketStatus, summary string) {
	if !ticket.CanTransitionTo(next) {
		ctx.Logger().Warn(ctx.Context(), "rejected ticket status transition",
			"ticket_id", ticket.TicketID, "from", ticket.Status, "to", next)
		return
	}
	ticket.Status = next
	ticket.LastUpdated = ctx.Now()
	if next == domain.StatusEscalatedToHuman {
		ctx.Metrics().IncCounter("conductor_escalations", 1, "reason", "synthesis")
	}
	if next.Terminal() && summary != "" {
		ticket.ResolutionSummary = summary
	}

	if !next.Terminal() || ticket.AwaitingQuestionID == "" {
		return
	}

	qID := ticket.AwaitingQuestionID
	timeoutSeconds := defaultQuestionTimeoutSeconds
	if rec, ok := ticket.PendingQuestions[qID]; ok {
		rec.Status = domain.QuestionTimeout
		ticket.PendingQuestions[qID] = rec
		if rec.TimeoutSeconds > 0 {
			timeoutSeconds = rec.TimeoutSeconds
		}
	}
	ticket.AwaitingQuestionID = ""

	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: qID,
			SignalName: domain.SignalReceiveAnswer,
			Payload:    domain.ReceiveAnswerSignal{Answer: domain.TimeoutMessageFor(timeoutSeconds)},
		},
		Timeout: shortActivityTimeout,
	}, nil)
}

// applyDisplayQuestion implements display_agent_question (spec §4.1, §4.4).
// The awaiting-answer marker is single-slot (invariant I3): if another
// question is already being answered, this one is still recorded and shown
// in chat history, but it serializes behind the first — it only becomes the
// awaiting target once the current one resolves (answered or timed out),
// via advanceAwaitingQuestion.
func applyDisplayQuestion(ctx engine.WorkflowContext, ticket *domain.Ticket, record domain.QuestionRecord) {
	if ticket.PendingQuestions == nil {
		ticket.PendingQuestions = map[string]domain.QuestionRecord{}
	}
	ticket.PendingQuestions[record.QuestionID] = record
	publishQuestionAsked(ctx, ticket, record)
	questionMsg := nextMessage(ctx, ticket, domain.ChatMessage{
		TicketID:    ticket.TicketID,
		Content:     record.Question,
		MessageType: domain.MessageSystem,
		AgentType:   record.AgentType,
	})
	ticket.ChatHistory = append(ticket.ChatHistory, questionMsg)
	publishChatMessage(ctx, ticket, questionMsg)
	ticket.LastUpdated = ctx.Now()
	if !ticket.Status.Terminal() {
		ticket.Status = domain.StatusWaitingForCustomer
	}
	if ticket.AwaitingQuestionID == "" {
		ticket.AwaitingQuestionID = record.QuestionID
	}
}

// applyQuestionTimeout implements question_timeout (spec §4.1, §4.4): marks
// the record timed out and, if it was the awaiting target, advances to the
// next pending question or restores IN_PROGRESS.
func applyQuestionTimeout(ctx engine.WorkflowContext, ticket *domain.Ticket, questionID string) {
	if rec, ok := ticket.PendingQuestions[questionID]; ok {
		rec.Status = domain.QuestionTimeout
		ticket.PendingQuestions[questionID] = rec
	}
	ticket.LastUpdated = ctx.Now()
	if ticket.AwaitingQuestionID != questionID {
		return
	}
	ticket.AwaitingQuestionID = ""
	advanceAwaitingQuestion(ticket)
}

// advanceAwaitingQuestion sets AwaitingQuestionID to the earliest-asked
// still-pending question, if any, or restores IN_PROGRESS when none remain.
// Selecting by (AskedAt, QuestionID) rather than map iteration order keeps
// the choice deterministic across workflow replay regardless of Go's
// randomized map ordering.
func advanceAwaitingQuestion(ticket *domain.Ticket) {
	var bestID string
	var best domain.QuestionRecord
	for id, rec := range ticket.PendingQuestions {
		if rec.Status != domain.QuestionPending {
			continue
		}
		if bestID == "" || rec.AskedAt.Before(best.AskedAt) || (rec.AskedAt.Equal(best.AskedAt) && id < bestID) {
			bestID, best = id, rec
		}
	}
	if bestID != "" {
		ticket.AwaitingQuestionID = bestID
		return
	}
	if !ticket.Status.Terminal() {
		ticket.Status = domain.StatusInProgress
	}
}

// applyOrchestratorResult consumes a completed Orchestrator child's result.
// Escalation driven by a synthesis decision arrives separately as an
// updateTicketStatus signal the Orchestrator itself sends; this only covers
// the workflow-execution-error path (spec §7 taxonomy #4, "Status becomes
// ESCALATED_TO_HUMAN ... when agent execution raises an unrecoverable
// error") and records the synthesis's bookkeeping fields into context.
func applyOrchestratorResult(ctx engine.WorkflowContext, ticket *domain.Ticket, active *engine.ChildWorkflowHandle) {
	var out domain.OrchestratorOutput
	err := (*active).Get(ctx.Context(), &out)
	*active = nil
	ticket.LastUpdated = ctx.Now()

	if err != nil {
		ticket.FailedAttempts++
		ticket.EscalationCount++
		ticket.EscalationReason = err.Error()
		if !ticket.Status.Terminal() {
			ticket.Status = domain.StatusEscalatedToHuman
		}
		ctx.Metrics().IncCounter("conductor_escalations", 1, "reason", "execution_error")
		failMsg := nextMessage(ctx, ticket, domain.ChatMessage{
			TicketID:    ticket.TicketID,
			Content:     "Orchestration failed: " + err.Error(),
			MessageType: domain.MessageSystem,
		})
		ticket.ChatHistory = append(ticket.ChatHistory, failMsg)
		publishChatMessage(ctx, ticket, failMsg)
		return
	}

	if ticket.Context == nil {
		ticket.Context = map[string]any{}
	}
	ticket.Context["last_synthesis_confidence"] = out.Synthesis.Confidence
	ticket.Context["last_requires_followup"] = out.Synthesis.RequiresFollowup
	ticket.Context["last_orchestrated_at"] = ctx.Now()
}

// publishChatMessage fires the publish_ticket_event activity for msg so a UI
// gateway subscribed via hooks sees it. Fire-and-forget, same as
// signal_relay: losing a published event never corrupts ticket state, since
// getState remains the source of truth.
func publishChatMessage(ctx engine.WorkflowContext, ticket *domain.Ticket, msg domain.ChatMessage) {
	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name:    ActivityPublishEvent,
		Input:   publishEventInput{TicketID: ticket.TicketID, Type: "chat_message", Message: &msg},
		Timeout: shortActivityTimeout,
	}, nil)
}

// publishQuestionAsked fires the publish_ticket_event activity for record.
func publishQuestionAsked(ctx engine.WorkflowContext, ticket *domain.Ticket, record domain.QuestionRecord) {
	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name:    ActivityPublishEvent,
		Input:   publishEventInput{TicketID: ticket.TicketID, Type: "question_asked", Question: &record},
		Timeout: shortActivityTimeout,
	}, nil)
}

// archiveTicket fires the archive_ticket activity with ticket's final
// snapshot. Fire-and-forget, same rationale as publishChatMessage: the
// archive is a read-side convenience, not part of the workflow's own
// source of truth.
func archiveTicket(ctx engine.WorkflowContext, ticket domain.Ticket) {
	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name:    ActivityArchiveTicket,
		Input:   ticket,
		Timeout: shortActivityTimeout,
	}, nil)
}

// cloneTicket returns a defensive copy of *ticket, so a getState query
// caller can never observe or mutate the conductor's live state — the
// in-memory engine passes query results by direct reference, unlike
// Temporal's data-converter round trip, so this copy keeps both backends
// equally safe.
func cloneTicket(ticket *domain.Ticket) domain.Ticket {
	snap := *ticket
	snap.ChatHistory = append([]domain.ChatMessage(nil), ticket.ChatHistory...)
	snap.PendingQuestions = make(map[string]domain.QuestionRecord, len(ticket.PendingQuestions))
	for k, v := range ticket.PendingQuestions {
		snap.PendingQuestions[k] = v
	}
	if ticket.CustomerProfile != nil {
		snap.CustomerProfile = make(map[string]any, len(ticket.CustomerProfile))
		for k, v := range ticket.CustomerProfile {
			snap.CustomerProfile[k] = v
		}
	}
	if ticket.Context != nil {
		snap.Context = make(map[string]any, len(ticket.Context))
		for k, v := range ticket.Context {
			snap.Context[k] = v
		}
	}
	return snap
}
