package workflows

import (
	"context"

	"github.com/ticketflow/conductor/engine"
)

// Register installs every workflow this package defines, plus acts, into
// eng, using opts as the default activity options for the long-running
// activities (plan, synthesize, specialist_run, query_ticket_state,
// maintenance_sweep). Call once during cmd/worker and test-harness
// initialization, before eng.Start (Temporal) or the first StartWorkflow
// (in-memory).
func Register(ctx context.Context, eng engine.Engine, acts *Activities, opts engine.ActivityOptions) error {
	workflowDefs := []engine.WorkflowDefinition{
		{Name: WorkflowTicketConductor, Handler: TicketConductor},
		{Name: WorkflowOrchestrator, Handler: Orchestrator},
		{Name: WorkflowSpecialist, Handler: Specialist},
		{Name: WorkflowQuestion, Handler: Question},
		{Name: WorkflowMaintenance, Handler: Maintenance},
	}
	for _, d := range workflowDefs {
		if err := eng.RegisterWorkflow(ctx, d); err != nil {
			return err
		}
	}
	return acts.Register(ctx, eng, opts)
}
