package workflows_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/engine/inmem"
	"github.com/ticketflow/conductor/llm"
	"github.com/ticketflow/conductor/tools"
	"github.com/ticketflow/conductor/workflows"
)

// stubLLM is a deterministic llm.Client: it always plans a single
// GENERAL_SUPPORT step and echoes the customer message back as the final
// response, so conductor_test exercises the full
// plan->dispatch->specialist->synthesize pipeline without a live model.
type stubLLM struct{}

func (stubLLM) Plan(_ context.Context, in domain.PlanActivityInput) (domain.ExecutionPlan, error) {
	return domain.ExecutionPlan{
		Strategy: domain.StrategySequential,
		Steps: []domain.ExecutionStep{{
			StepNumber: 1,
			AgentType:  domain.AgentGeneralSupport,
			Reason:     "test plan",
		}},
	}, nil
}

func (stubLLM) Synthesize(_ context.Context, in domain.SynthesizeActivityInput) (domain.SynthesisResult, error) {
	resp := "synthesized: " + in.CustomerMessage
	return domain.SynthesisResult{FinalResponse: resp, Confidence: 0.9}, nil
}

func (stubLLM) Reason(_ context.Context, in domain.SpecialistInput, _ []llm.Tool) (domain.SpecialistOutput, error) {
	return domain.SpecialistOutput{Response: "handled: " + in.CustomerMessage, Confidence: 0.8}, nil
}

func newTestEngine(t *testing.T) engine.Engine {
	t.Helper()
	eng := inmem.New()
	toolsProvider, err := tools.NewStaticProvider(nil)
	require.NoError(t, err)
	acts := &workflows.Activities{
		LLM:                    stubLLM{},
		Tools:                  toolsProvider,
		Eng:                    eng,
		QuestionTimeoutSeconds: 5,
	}
	require.NoError(t, workflows.Register(context.Background(), eng, acts, engine.ActivityOptions{StartToClose: 10 * time.Second}))
	return eng
}

func TestTicketConductorEndToEnd(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	ticketID := "ticket-1"
	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:         workflows.TicketWorkflowID(ticketID),
		Workflow:   workflows.WorkflowTicketConductor,
		RunTimeout: 5 * time.Second,
		Input: domain.TicketStartInput{
			TicketID:       ticketID,
			CustomerID:     "cust-1",
			InitialMessage: "my order never arrived",
		},
	})
	require.NoError(t, err)

	var ticket domain.Ticket
	require.Eventually(t, func() bool {
		return eng.QueryWorkflow(ctx, workflows.TicketWorkflowID(ticketID), domain.QueryGetState, nil, &ticket) == nil &&
			len(ticket.ChatHistory) >= 4
	}, 2*time.Second, 10*time.Millisecond)

	// The initial customer message must be visible in chat history (a prior
	// regression lost it — it only ever reached the dispatch queue).
	require.Equal(t, domain.MessageCustomer, ticket.ChatHistory[0].MessageType)
	require.Equal(t, "my order never arrived", ticket.ChatHistory[0].Content)

	var sawSynthesis bool
	for _, m := range ticket.ChatHistory {
		if m.AgentType == domain.AgentOrchestrator {
			sawSynthesis = true
			require.Contains(t, m.Content, "synthesized:")
		}
	}
	require.True(t, sawSynthesis, "expected an ORCHESTRATOR synthesis message in chat history")

	require.NoError(t, eng.SignalWorkflow(ctx, workflows.TicketWorkflowID(ticketID), domain.SignalUpdateTicketStatus,
		domain.UpdateTicketStatusSignal{Status: domain.StatusResolved}))

	var final domain.Ticket
	require.NoError(t, handle.Wait(ctx, &final))
	require.True(t, final.Status.Terminal())
}

// TestMaintenanceSweepAutoCloses exercises the Maintenance Scheduler
// end-to-end: a negative InactivityMinutes pushes the idle threshold into
// the future, so every open ticket it enumerates is treated as idle and
// auto-closed in one sweep (spec §4.5).
func TestMaintenanceSweepAutoCloses(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	ticketID := "ticket-idle"
	_, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:         workflows.TicketWorkflowID(ticketID),
		Workflow:   workflows.WorkflowTicketConductor,
		RunTimeout: 5 * time.Second,
		Input: domain.TicketStartInput{
			TicketID:       ticketID,
			CustomerID:     "cust-3",
			InitialMessage: "anyone there?",
		},
	})
	require.NoError(t, err)

	var ticket domain.Ticket
	require.Eventually(t, func() bool {
		return eng.QueryWorkflow(ctx, workflows.TicketWorkflowID(ticketID), domain.QueryGetState, nil, &ticket) == nil &&
			len(ticket.ChatHistory) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	sweepHandle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:         "maintenance-run-1",
		Workflow:   workflows.WorkflowMaintenance,
		RunTimeout: 5 * time.Second,
		Input: workflows.MaintenanceInput{
			InactivityMinutes: -1440,
			ClosureMessage:    "auto-closed for test",
		},
	})
	require.NoError(t, err)

	var report domain.MaintenanceReport
	require.NoError(t, sweepHandle.Wait(ctx, &report))
	require.Equal(t, 1, report.Closed)
	require.Contains(t, report.ClosedTicketIDs, ticketID)

	require.Eventually(t, func() bool {
		require.NoError(t, eng.QueryWorkflow(ctx, workflows.TicketWorkflowID(ticketID), domain.QueryGetState, nil, &ticket))
		return ticket.Status == domain.StatusClosed
	}, 2*time.Second, 10*time.Millisecond)
}
