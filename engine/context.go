package engine

import "context"

type wfCtxKey struct{}

// WithWorkflowContext stashes the engine-level WorkflowContext on a plain
// context.Context so activities invoked with engine.WorkflowContext.Context()
// can recover it (e.g. to log through the same telemetry.Logger).
func WithWorkflowContext(ctx context.Context, wc WorkflowContext) context.Context {
	return context.WithValue(ctx, wfCtxKey{}, wc)
}

// WorkflowContextFromContext recovers a WorkflowContext stashed by
// WithWorkflowContext, if any.
func WorkflowContextFromContext(ctx context.Context) (WorkflowContext, bool) {
	wc, ok := ctx.Value(wfCtxKey{}).(WorkflowContext)
	return wc, ok
}
