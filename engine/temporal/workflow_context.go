package temporal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/telemetry"
)

// temporalWorkflowContext adapts workflow.Context to engine.WorkflowContext.
// One instance is created per workflow execution by wrapWorkflow.
type temporalWorkflowContext struct {
	wctx    workflow.Context
	eng     *Engine
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	sigChannels map[string]*temporalSignalChannel
}

func newTemporalWorkflowContext(wctx workflow.Context, e *Engine) *temporalWorkflowContext {
	return &temporalWorkflowContext{
		wctx:        wctx,
		eng:         e,
		logger:      e.logger,
		metrics:     e.metrics,
		tracer:      e.tracer,
		sigChannels: map[string]*temporalSignalChannel{},
	}
}

// wrapWorkflow adapts an engine.WorkflowFunc into a Temporal workflow
// function. Temporal calls the returned closure with a workflow.Context;
// we build our own WorkflowContext around it and hand it to the
// engine-agnostic handler, which never imports the Temporal SDK directly.
func (e *Engine) wrapWorkflow(def engine.WorkflowDefinition) any {
	return func(wctx workflow.Context, input any) (any, error) {
		ctx := newTemporalWorkflowContext(wctx, e)
		result, err := def.Handler(ctx, input)
		return result, normalizeTemporalError(err)
	}
}

// wrapActivity adapts an engine.ActivityFunc into a Temporal activity
// function.
func (e *Engine) wrapActivity(def engine.ActivityDefinition) any {
	return func(ctx context.Context, input any) (any, error) {
		return def.Handler(ctx, input)
	}
}

// normalizeTemporalError maps Temporal's cancellation errors onto
// context.Canceled so workflow code can use errors.Is uniformly regardless
// of engine backend.
func normalizeTemporalError(err error) error {
	if err == nil {
		return nil
	}
	var canceledErr *temporal.CanceledError
	if errors.As(err, &canceledErr) || workflow.ErrCanceled == err {
		return context.Canceled
	}
	return err
}

func (c *temporalWorkflowContext) Context() context.Context {
	// A plain, non-cancellable context carrying this WorkflowContext so
	// code that only needs engine.WorkflowContextFromContext (e.g. shared
	// helpers called from both workflows and activities) can recover it.
	// Actual scheduling always goes through c.wctx, never through this.
	return engine.WithWorkflowContext(context.Background(), c)
}

func (c *temporalWorkflowContext) WorkflowID() string {
	return workflow.GetInfo(c.wctx).WorkflowExecution.ID
}

func (c *temporalWorkflowContext) RunID() string {
	return workflow.GetInfo(c.wctx).WorkflowExecution.RunID
}

func (c *temporalWorkflowContext) Logger() telemetry.Logger   { return c.logger }
func (c *temporalWorkflowContext) Metrics() telemetry.Metrics { return c.metrics }
func (c *temporalWorkflowContext) Tracer() telemetry.Tracer   { return c.tracer }
func (c *temporalWorkflowContext) Now() time.Time             { return workflow.Now(c.wctx) }

// NewUUID generates a UUID through workflow.SideEffect so its value is
// recorded in workflow history and replayed verbatim rather than
// regenerated, keeping the workflow deterministic across replay.
func (c *temporalWorkflowContext) NewUUID() string {
	encoded := workflow.SideEffect(c.wctx, func(workflow.Context) any {
		return uuid.NewString()
	})
	var id string
	if err := encoded.Get(&id); err != nil {
		return ""
	}
	return id
}

func (c *temporalWorkflowContext) Detached() context.Context {
	// Callers use this only to pass into Context-typed cleanup helpers;
	// the disconnected workflow.Context itself is not exposed since
	// engine.WorkflowContext has no notion of "detached workflow context" —
	// cleanup workflow code should instead construct a fresh
	// temporalWorkflowContext wrapping the disconnected workflow.Context
	// if it needs to call back into ExecuteActivity after the parent is
	// cancelled.
	return context.Background()
}

func (c *temporalWorkflowContext) ExecuteActivity(_ context.Context, req engine.ActivityRequest, result any) error {
	fut, err := c.ExecuteActivityAsync(context.Background(), req)
	if err != nil {
		return err
	}
	return fut.Get(context.Background(), result)
}

func (c *temporalWorkflowContext) ExecuteActivityAsync(_ context.Context, req engine.ActivityRequest) (engine.Future, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.eng.opts.DefaultActivityOptions.StartToClose
	}
	ao := workflow.ActivityOptions{
		TaskQueue:              req.Queue,
		StartToCloseTimeout:    timeout,
		ScheduleToStartTimeout: 0,
		RetryPolicy:            convertRetryPolicy(req.RetryPolicy),
	}
	ctx := workflow.WithActivityOptions(c.wctx, ao)
	fut := workflow.ExecuteActivity(ctx, req.Name, req.Input)
	return &temporalFuture{fut: fut}, nil
}

func (c *temporalWorkflowContext) StartChildWorkflow(_ context.Context, req engine.ChildWorkflowRequest) (engine.ChildWorkflowHandle, error) {
	cwo := workflow.ChildWorkflowOptions{
		WorkflowID:          req.ID,
		TaskQueue:           req.TaskQueue,
		WorkflowRunTimeout:  req.RunTimeout,
		RetryPolicy:         convertRetryPolicy(req.RetryPolicy),
		ParentClosePolicy:   enumspb.PARENT_CLOSE_POLICY_ABANDON,
	}
	ctx := workflow.WithChildOptions(c.wctx, cwo)
	ctx, cancel := workflow.WithCancel(ctx)
	fut := workflow.ExecuteChildWorkflow(ctx, req.Workflow, req.Input)
	var exec workflow.Execution
	if err := fut.GetChildWorkflowExecution().Get(ctx, &exec); err != nil {
		cancel()
		return nil, err
	}
	return &temporalChildHandle{fut: fut, cancel: cancel, runID: exec.RunID}, nil
}

func (c *temporalWorkflowContext) SignalChannel(name string) engine.SignalChannel {
	if ch, ok := c.sigChannels[name]; ok {
		return ch
	}
	ch := &temporalSignalChannel{ch: workflow.GetSignalChannel(c.wctx, name), wctx: c.wctx}
	c.sigChannels[name] = ch
	return ch
}

func (c *temporalWorkflowContext) SetQueryHandler(name string, handler any) error {
	return workflow.SetQueryHandler(c.wctx, name, handler)
}

func (c *temporalWorkflowContext) NewTimer(_ context.Context, d time.Duration) engine.Future {
	if d <= 0 {
		return &immediateFuture{}
	}
	return &temporalFuture{fut: workflow.NewTimer(c.wctx, d)}
}

func (c *temporalWorkflowContext) Await(_ context.Context, cond func() bool) error {
	return workflow.Await(c.wctx, cond)
}

type temporalFuture struct{ fut workflow.Future }

func (f *temporalFuture) Get(_ context.Context, result any) error {
	if result == nil {
		var discard any
		return f.fut.Get(context.Background(), &discard) //nolint:errcheck // discard timer results
	}
	return f.fut.Get(context.Background(), result)
}
func (f *temporalFuture) IsReady() bool { return f.fut.IsReady() }

type immediateFuture struct{}

func (*immediateFuture) Get(context.Context, any) error { return nil }
func (*immediateFuture) IsReady() bool                  { return true }

type temporalChildHandle struct {
	fut    workflow.ChildWorkflowFuture
	cancel func()
	runID  string
}

func (h *temporalChildHandle) Get(_ context.Context, result any) error {
	return h.fut.Get(context.Background(), result)
}
func (h *temporalChildHandle) Cancel(context.Context) error {
	h.cancel()
	return nil
}
func (h *temporalChildHandle) RunID() string { return h.runID }
func (h *temporalChildHandle) IsReady() bool { return h.fut.IsReady() }

type temporalSignalChannel struct {
	ch   workflow.ReceiveChannel
	wctx workflow.Context
}

func (s *temporalSignalChannel) Receive(_ context.Context, dest any) error {
	s.ch.Receive(s.wctx, dest)
	return nil
}

func (s *temporalSignalChannel) ReceiveWithTimeout(_ context.Context, dest any, d time.Duration) (bool, error) {
	sel := workflow.NewSelector(s.wctx)
	timer := workflow.NewTimer(s.wctx, d)
	var got bool
	sel.AddReceive(s.ch, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(s.wctx, dest)
		got = true
	})
	sel.AddFuture(timer, func(workflow.Future) {})
	sel.Select(s.wctx)
	return got, nil
}

func (s *temporalSignalChannel) ReceiveAsync(dest any) bool {
	return s.ch.ReceiveAsync(dest)
}

func statusFromTemporal(status enumspb.WorkflowExecutionStatus) engine.RunStatus {
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING, enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return engine.RunStatusRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return engine.RunStatusCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED, enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return engine.RunStatusCanceled
	default:
		return engine.RunStatusFailed
	}
}
