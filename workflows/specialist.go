package workflows

import (
	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/engine"
)

// Specialist is the Specialist Agent Workflow (spec §4.3): a thin durable
// wrapper around a single specialist_run activity call, bounded by a
// start-to-close timeout and run at-most-once (no retries — a specialist
// that partially acted via a tool must not be silently re-invoked).
func Specialist(ctx engine.WorkflowContext, rawInput any) (any, error) {
	var input domain.SpecialistInput
	if err := decodeInto(rawInput, &input); err != nil {
		return nil, err
	}

	var out domain.SpecialistActivityOutput
	if err := ctx.ExecuteActivity(ctx.Context(), engine.ActivityRequest{
		Name:        ActivitySpecialistRun,
		Input:       domain.SpecialistActivityInput{Input: input},
		Timeout:     specialistActivityTimeout,
		RetryPolicy: engine.RetryPolicy{MaxAttempts: 1},
	}, &out); err != nil {
		return nil, err
	}
	return out.Output, nil
}
