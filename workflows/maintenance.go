package workflows

import (
	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// MaintenanceInput configures one Maintenance Scheduler run (spec §4.5).
type MaintenanceInput struct {
	InactivityMinutes int    `json:"inactivity_minutes"`
	ClosureMessage    string `json:"closure_message"`
}

// Maintenance is the Maintenance Scheduler workflow (spec §4.5): a single
// maintenance_sweep invocation per run. Recurrence is driven externally by a
// Temporal Schedule (client.ScheduleClient, configured with
// config.Maintenance.Cadence and ScheduleID) rather than a self-rescheduling
// timer loop inside the workflow — this keeps cadence changes a schedule
// update instead of a workflow-history-breaking code change, and matches
// using Temporal for all durable scheduling instead of a second scheduler.
func Maintenance(ctx engine.WorkflowContext, rawInput any) (any, error) {
	var input MaintenanceInput
	if err := decodeInto(rawInput, &input); err != nil {
		return nil, err
	}

	var out domain.MaintenanceReport
	if err := ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name: ActivityMaintenance,
		Input: maintenanceSweepInput{
			Now:               ctx.Now(),
			InactivityMinutes: input.InactivityMinutes,
			ClosureMessage:    input.ClosureMessage,
		},
		Timeout:     planSynthesizeTimeout,
		RetryPolicy: engine.RetryPolicy{MaxAttempts: 3},
	}, &out); err != nil {
		return nil, err
	}
	ctx.Logger().Info(ctx.Context(), "maintenance sweep complete",
		"evaluated", out.Evaluated, "closed", out.Closed)
	ctx.Metrics().IncCounter("conductor_tickets_auto_closed", float64(out.Closed))
	return out, nil
}
