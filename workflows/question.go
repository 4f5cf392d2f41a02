package workflows

import (
	"time"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// defaultQuestionWorkflowTimeout is used when input.TimeoutSeconds is not
// positive (spec §4.4 default: 300 seconds).
const defaultQuestionWorkflowTimeout = 300 * time.Second

// Question is the Question Workflow (spec §4.4): a one-shot rendezvous that
// lets a specialist block on a customer's answer. It signals its parent
// Ticket Conductor with display_agent_question, then blocks on either a
// receive_answer signal or a timeout timer, whichever comes first.
func Question(ctx engine.WorkflowContext, rawInput any) (any, error) {
	var input domain.QuestionWorkflowInput
	if err := decodeInto(rawInput, &input); err != nil {
		return nil, err
	}

	timeout := time.Duration(input.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultQuestionWorkflowTimeout
	}

	record := domain.QuestionRecord{
		QuestionID:           ctx.WorkflowID(),
		TicketID:             input.TicketID,
		AgentType:            input.AgentType,
		Question:             input.Question,
		ExpectedResponseType: input.ExpectedResponseType,
		TimeoutSeconds:       int(timeout / time.Second),
		Status:               domain.QuestionPending,
		AskedAt:              ctx.Now(),
	}

	var status domain.QuestionStatusResult
	if err := ctx.SetQueryHandler(domain.QueryGetStatus, func() (domain.QuestionStatusResult, error) {
		return status, nil
	}); err != nil {
		return nil, err
	}

	// Ordering guarantee (spec §4.4): the question must land in the
	// conductor's chat history before this workflow becomes reachable by the
	// answering signal, so the customer always sees the question before they
	// could possibly answer it.
	if err := ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: input.ParentWorkflowID,
			SignalName: domain.SignalDisplayAgentQuestion,
			Payload:    record,
		},
		Timeout: shortActivityTimeout,
	}, nil); err != nil {
		return nil, err
	}

	var answer domain.ReceiveAnswerSignal
	got, err := ctx.SignalChannel(domain.SignalReceiveAnswer).ReceiveWithTimeout(ctx.Context(), &answer, timeout)
	if err != nil {
		return nil, err
	}
	if got {
		a := answer.Answer
		status = domain.QuestionStatusResult{Answered: true, Answer: &a}
		return domain.QuestionWorkflowOutput{Answer: answer.Answer}, nil
	}

	timeoutText := domain.TimeoutMessageFor(record.TimeoutSeconds)
	_ = ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivitySignalRelay,
		Input: signalRelayInput{
			WorkflowID: input.ParentWorkflowID,
			SignalName: domain.SignalQuestionTimeout,
			Payload:    domain.QuestionTimeoutSignal{QuestionID: record.QuestionID},
		},
		Timeout: shortActivityTimeout,
	}, nil)
	status = domain.QuestionStatusResult{Answered: false}
	return domain.QuestionWorkflowOutput{Answer: timeoutText}, nil
}
