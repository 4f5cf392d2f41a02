// Package temporal adapts engine.Engine onto the Temporal Go SDK. It is the
// production workflow backend: the Ticket Conductor, Orchestrator,
// Specialist, Question, and Maintenance Scheduler workflows all run through
// this adapter when started by cmd/worker.
package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/telemetry"
)

// Options configures a new Engine.
type Options struct {
	// Client is a pre-constructed Temporal client. Required.
	Client client.Client
	// TaskQueue is the default task queue used when a WorkflowDefinition or
	// WorkflowStartRequest does not specify one.
	TaskQueue string
	// DefaultActivityOptions bounds activities that don't set their own
	// timeout (spec §5: specialist activities 5 min, plan/synthesize 2 min —
	// callers should pass ActivityRequest.Timeout explicitly per call site;
	// this is the last-resort fallback).
	DefaultActivityOptions engine.ActivityOptions
	Logger                 telemetry.Logger
	Metrics                telemetry.Metrics
	Tracer                 telemetry.Tracer
}

// Engine adapts engine.Engine onto a Temporal client plus one worker per
// task queue actually used by registered workflows/activities.
type Engine struct {
	client  client.Client
	opts    Options
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	mu      sync.Mutex
	workers map[string]worker.Worker
	started bool

	workflows  map[string]engine.WorkflowDefinition
	activities map[string]engine.ActivityDefinition
}

// New constructs an Engine bound to opts.Client. Call RegisterWorkflow and
// RegisterActivity during initialization, then Start to launch the workers
// before calling StartWorkflow.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("temporal: client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Engine{
		client:     opts.Client,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		workers:    map[string]worker.Worker{},
		workflows:  map[string]engine.WorkflowDefinition{},
		activities: map[string]engine.ActivityDefinition{},
	}, nil
}

// RegisterWorkflow registers def with the engine and the worker for its
// task queue. Must be called before Start.
func (e *Engine) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.workflows[def.Name]; dup {
		return fmt.Errorf("temporal: workflow %q already registered", def.Name)
	}
	e.workflows[def.Name] = def

	queue := def.TaskQueue
	if queue == "" {
		queue = e.opts.TaskQueue
	}
	w := e.workerFor(queue)
	w.RegisterWorkflowWithOptions(e.wrapWorkflow(def), workflow.RegisterOptions{Name: def.Name})
	return nil
}

// RegisterActivity registers def with the engine and the worker for its
// task queue. Must be called before Start.
func (e *Engine) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.activities[def.Name]; dup {
		return fmt.Errorf("temporal: activity %q already registered", def.Name)
	}
	e.activities[def.Name] = def

	queue := def.Options.Queue
	if queue == "" {
		queue = e.opts.TaskQueue
	}
	w := e.workerFor(queue)
	w.RegisterActivityWithOptions(e.wrapActivity(def), activityRegisterOptions(def.Name))
	return nil
}

// Start launches a worker goroutine for every task queue that has a
// registered workflow or activity. Idempotent.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	for queue, w := range e.workers {
		if err := w.Start(); err != nil {
			return fmt.Errorf("temporal: start worker for queue %q: %w", queue, err)
		}
	}
	e.started = true
	return nil
}

// Stop gracefully stops every worker.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, w := range e.workers {
		w.Stop()
	}
	e.started = false
}

func (e *Engine) workerFor(queue string) worker.Worker {
	if w, ok := e.workers[queue]; ok {
		return w
	}
	w := worker.New(e.client, queue, worker.Options{})
	e.workers[queue] = w
	return w
}

// StartWorkflow starts req.Workflow on Temporal and returns a handle.
func (e *Engine) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	queue := req.TaskQueue
	if queue == "" {
		queue = e.opts.TaskQueue
	}
	run, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    req.ID,
		TaskQueue:             queue,
		WorkflowExecutionTimeout: req.RunTimeout,
		RetryPolicy:           convertRetryPolicy(req.RetryPolicy),
		Memo:                  req.Memo,
	}, req.Workflow, req.Input)
	if err != nil {
		return nil, fmt.Errorf("temporal: start workflow %q: %w", req.Workflow, err)
	}
	return &workflowHandle{client: e.client, run: run}, nil
}

// QueryRunStatus reports a workflow's lifecycle status via Temporal's
// DescribeWorkflowExecution.
func (e *Engine) QueryRunStatus(ctx context.Context, workflowID string) (engine.RunStatus, error) {
	resp, err := e.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return "", fmt.Errorf("temporal: describe workflow %q: %w", workflowID, err)
	}
	info := resp.GetWorkflowExecutionInfo()
	if info == nil {
		return "", engine.ErrWorkflowNotFound
	}
	return statusFromTemporal(info.GetStatus()), nil
}

// SignalWorkflow delivers a signal to a running workflow by id.
func (e *Engine) SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error {
	return e.client.SignalWorkflow(ctx, workflowID, "", signalName, payload)
}

// QueryWorkflow queries a running workflow by id.
func (e *Engine) QueryWorkflow(ctx context.Context, workflowID, queryName string, args, result any) error {
	var queryArgs []any
	if args != nil {
		queryArgs = []any{args}
	}
	resp, err := e.client.QueryWorkflow(ctx, workflowID, "", queryName, queryArgs...)
	if err != nil {
		return fmt.Errorf("temporal: query workflow %q: %w", workflowID, err)
	}
	return resp.Get(result)
}

// ListWorkflows lists running executions of workflowName via Temporal's
// visibility API, filtering by workflow type and open status.
func (e *Engine) ListWorkflows(ctx context.Context, workflowName string) ([]string, error) {
	query := fmt.Sprintf("WorkflowType = '%s' AND ExecutionStatus = 'Running'", workflowName)
	var ids []string
	var nextPageToken []byte
	for {
		resp, err := e.client.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
			Query:         query,
			NextPageToken: nextPageToken,
		})
		if err != nil {
			return nil, fmt.Errorf("temporal: list workflows %q: %w", workflowName, err)
		}
		for _, ex := range resp.GetExecutions() {
			ids = append(ids, ex.GetExecution().GetWorkflowId())
		}
		nextPageToken = resp.GetNextPageToken()
		if len(nextPageToken) == 0 {
			break
		}
	}
	return ids, nil
}

func activityRegisterOptions(name string) activity.RegisterOptions {
	return activity.RegisterOptions{Name: name}
}

func convertRetryPolicy(p engine.RetryPolicy) *temporal.RetryPolicy {
	if p.MaxAttempts == 0 && p.InitialInterval == 0 && p.BackoffCoefficient == 0 {
		return nil
	}
	coeff := p.BackoffCoefficient
	if coeff < 1 {
		coeff = 1
	}
	interval := p.InitialInterval
	if interval == 0 {
		interval = time.Second
	}
	return &temporal.RetryPolicy{
		InitialInterval:    interval,
		BackoffCoefficient: coeff,
		MaximumAttempts:    int32(p.MaxAttempts),
	}
}

type workflowHandle struct {
	client client.Client
	run    client.WorkflowRun
}

func (h *workflowHandle) Wait(ctx context.Context, result any) error {
	return h.run.Get(ctx, result)
}

func (h *workflowHandle) Signal(ctx context.Context, name string, payload any) error {
	return h.client.SignalWorkflow(ctx, h.run.GetID(), h.run.GetRunID(), name, payload)
}

func (h *workflowHandle) Query(ctx context.Context, name string, args any, result any) error {
	var queryArgs []any
	if args != nil {
		queryArgs = []any{args}
	}
	resp, err := h.client.QueryWorkflow(ctx, h.run.GetID(), h.run.GetRunID(), name, queryArgs...)
	if err != nil {
		return err
	}
	return resp.Get(result)
}

func (h *workflowHandle) Cancel(ctx context.Context) error {
	return h.client.CancelWorkflow(ctx, h.run.GetID(), h.run.GetRunID())
}
