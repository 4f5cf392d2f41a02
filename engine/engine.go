// Package engine defines the workflow engine abstractions used by the
// ticket conductor, orchestrator, specialist, question, and maintenance
// workflows. It provides a pluggable interface so those workflows can run
// against Temporal in production or an in-memory engine in tests without
// any change to workflow code.
package engine

import (
	"context"
	"time"

	"github.com/ticketflow/conductor/telemetry"
)

type (
	// Engine abstracts workflow and activity registration plus workflow
	// startup so adapters (Temporal, in-memory) can be swapped without
	// touching workflow code.
	Engine interface {
		// RegisterWorkflow registers a workflow definition with the engine.
		// Must be called during worker initialization, before Start.
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error

		// RegisterActivity registers an activity definition with the engine.
		RegisterActivity(ctx context.Context, def ActivityDefinition) error

		// StartWorkflow initiates a new workflow execution and returns a
		// handle for interacting with it. req.ID must be unique for the
		// engine instance.
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)

		// QueryRunStatus reports the lifecycle status of a started workflow.
		QueryRunStatus(ctx context.Context, workflowID string) (RunStatus, error)

		// SignalWorkflow delivers a signal to a running workflow by id,
		// without the caller needing to have kept its WorkflowHandle (e.g.
		// the Maintenance Scheduler signaling many tickets it never
		// started itself, or a Question Workflow signaling its parent).
		SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error

		// QueryWorkflow queries a running workflow by id, without the
		// caller needing to have kept its WorkflowHandle (e.g. the
		// Orchestrator re-querying its parent Ticket Conductor's state).
		QueryWorkflow(ctx context.Context, workflowID, queryName string, args, result any) error

		// ListWorkflows returns the ids of currently running workflow
		// executions of the given workflow type (e.g. the Maintenance
		// Scheduler enumerating running Ticket Conductor workflows, spec
		// §4.5 step 1: "Enumerates all running ticket workflows").
		ListWorkflows(ctx context.Context, workflowName string) ([]string, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name and
	// default task queue.
	WorkflowDefinition struct {
		Name      string
		TaskQueue string
		Handler   WorkflowFunc
	}

	// WorkflowFunc is a workflow entry point. It must be deterministic:
	// given the same input and the same sequence of activity/signal
	// results, it must produce the same sequence of engine calls.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes engine operations to workflow handlers.
	// Implementations must preserve deterministic replay: ExecuteActivity,
	// SignalChannel, NewTimer, and Now must behave identically when a
	// workflow history is replayed. Workflow code must never perform
	// direct I/O, goroutine scheduling, or call time.Now()/rand directly —
	// only through this interface.
	//
	// A WorkflowContext is bound to a single workflow execution and must
	// not be retained past that workflow's lifetime.
	WorkflowContext interface {
		// Context returns the Go context backing this workflow execution.
		// Use it for activity calls and to observe cancellation.
		Context() context.Context

		WorkflowID() string
		RunID() string

		// ExecuteActivity schedules an activity and blocks for its result.
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error

		// ExecuteActivityAsync schedules an activity without blocking.
		ExecuteActivityAsync(ctx context.Context, req ActivityRequest) (Future, error)

		// StartChildWorkflow starts a child workflow and returns a handle.
		StartChildWorkflow(ctx context.Context, req ChildWorkflowRequest) (ChildWorkflowHandle, error)

		// SignalChannel returns the channel for a named signal. Repeated
		// calls with the same name return the same channel.
		SignalChannel(name string) SignalChannel

		// SetQueryHandler registers a query handler for this workflow.
		// handler must be a func(args...) (any, error) value; adapters
		// validate the signature at registration.
		SetQueryHandler(name string, handler any) error

		// NewTimer returns a Future that resolves after d elapses in
		// workflow time. d <= 0 resolves immediately.
		NewTimer(ctx context.Context, d time.Duration) Future

		// Await blocks until cond returns true or ctx is done, yielding to
		// the workflow scheduler between evaluations.
		Await(ctx context.Context, cond func() bool) error

		// Detached returns a context.Context usable for cleanup work that
		// must run even after the parent context is cancelled.
		Detached() context.Context

		Logger() telemetry.Logger
		Metrics() telemetry.Metrics
		Tracer() telemetry.Tracer

		// Now returns the current workflow time, replay-safe.
		Now() time.Time

		// NewUUID returns a freshly generated UUID, replay-safe: workflow
		// code must never call a UUID library directly (its result would
		// differ across a replay), only through this method.
		NewUUID() string
	}

	// Future represents a pending result of an activity or timer.
	Future interface {
		// Get blocks until the result is available and populates result,
		// unless the future carries no value (e.g. a timer), in which case
		// result is ignored and may be nil.
		Get(ctx context.Context, result any) error
		IsReady() bool
	}

	// SignalChannel exposes signal delivery to workflow code.
	SignalChannel interface {
		// Receive blocks until a signal value is delivered and decodes it
		// into dest.
		Receive(ctx context.Context, dest any) error

		// ReceiveWithTimeout blocks until a signal arrives or d elapses.
		// Returns false, nil on timeout.
		ReceiveWithTimeout(ctx context.Context, dest any, d time.Duration) (bool, error)

		// ReceiveAsync attempts a non-blocking receive.
		ReceiveAsync(dest any) bool
	}

	// ActivityDefinition registers an activity handler.
	ActivityDefinition struct {
		Name    string
		Handler ActivityFunc
		Options ActivityOptions
	}

	// ActivityFunc handles a single activity invocation. Unlike workflow
	// code, activities may perform arbitrary I/O.
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// ActivityOptions configures retry/timeout behavior for an activity.
	ActivityOptions struct {
		Queue           string
		RetryPolicy     RetryPolicy
		StartToClose    time.Duration
		ScheduleToStart time.Duration
	}

	// WorkflowStartRequest describes how to launch a workflow execution.
	WorkflowStartRequest struct {
		ID          string
		Workflow    string
		TaskQueue   string
		Input       any
		RunTimeout  time.Duration
		RetryPolicy RetryPolicy
		Memo        map[string]any
	}

	// ActivityRequest contains the info needed to schedule an activity.
	ActivityRequest struct {
		Name        string
		Input       any
		Queue       string
		RetryPolicy RetryPolicy
		Timeout     time.Duration
	}

	// ChildWorkflowRequest describes a child workflow start.
	ChildWorkflowRequest struct {
		ID          string
		Workflow    string
		TaskQueue   string
		Input       any
		RunTimeout  time.Duration
		RetryPolicy RetryPolicy
	}

	// ChildWorkflowHandle allows a parent workflow to await or cancel a
	// child workflow it started.
	ChildWorkflowHandle interface {
		Get(ctx context.Context, result any) error
		Cancel(ctx context.Context) error
		RunID() string

		// IsReady reports whether the child has already completed, without
		// blocking. Lets a parent keep servicing signals via Await while a
		// child it started is still running, instead of blocking its whole
		// event loop on Get.
		IsReady() bool
	}

	// WorkflowHandle allows external callers to interact with a running
	// workflow.
	WorkflowHandle interface {
		Wait(ctx context.Context, result any) error
		Signal(ctx context.Context, name string, payload any) error
		Query(ctx context.Context, name string, args any, result any) error
		Cancel(ctx context.Context) error
	}

	// RetryPolicy defines retry semantics shared by workflows and
	// activities. Zero-valued fields mean the engine uses its defaults.
	RetryPolicy struct {
		MaxAttempts        int
		InitialInterval    time.Duration
		BackoffCoefficient float64
	}

	// RunStatus is the lifecycle status of a started workflow.
	RunStatus string
)

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// ErrWorkflowNotFound is returned for operations against an unknown workflow ID.
var ErrWorkflowNotFound = errWorkflowNotFound{}

type errWorkflowNotFound struct{}

func (errWorkflowNotFound) Error() string { return "workflow not found" }
