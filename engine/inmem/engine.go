// Package inmem provides an in-memory implementation of engine.Engine for
// fast, deterministic-enough unit tests of the conductor/orchestrator logic
// without a live Temporal server. It is not replay-safe and must never be
// used in production.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticketflow/conductor/engine"
	"github.com/ticketflow/conductor/telemetry"
)

type (
	eng struct {
		mu         sync.RWMutex
		workflows  map[string]engine.WorkflowDefinition
		activities map[string]engine.ActivityDefinition
		statuses   map[string]engine.RunStatus
		handles    map[string]*handle
	}

	childHandle struct{ h *handle }

	handle struct {
		mu      sync.Mutex
		done    chan struct{}
		err     error
		result  any
		wfCtx   *wfCtx
		queries map[string]any

		workflowName string
	}

	wfCtx struct {
		ctx     context.Context
		id      string
		runID   string
		logger  telemetry.Logger
		metrics telemetry.Metrics
		tracer  telemetry.Tracer
		eng     *eng
		self    *handle

		sigMu sync.Mutex
		sigs  map[string]*signalChan
	}

	future struct {
		mu     sync.Mutex
		ready  chan struct{}
		result any
		err    error
	}

	signalChan struct{ ch chan any }
)

// New returns a new in-memory Engine suitable for local development and
// tests. Not deterministic or replay-safe.
func New() engine.Engine {
	return &eng{
		workflows:  map[string]engine.WorkflowDefinition{},
		activities: map[string]engine.ActivityDefinition{},
		statuses:   map[string]engine.RunStatus{},
		handles:    map[string]*handle{},
	}
}

func (e *eng) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.workflows[def.Name]; dup {
		return fmt.Errorf("workflow %q already registered", def.Name)
	}
	if def.Handler == nil || def.Name == "" {
		return errors.New("invalid workflow definition")
	}
	e.workflows[def.Name] = def
	return nil
}

func (e *eng) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.activities[def.Name]; dup {
		return fmt.Errorf("activity %q already registered", def.Name)
	}
	if def.Handler == nil || def.Name == "" {
		return errors.New("invalid activity definition")
	}
	e.activities[def.Name] = def
	return nil
}

func (e *eng) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	e.mu.RLock()
	def, ok := e.workflows[req.Workflow]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("workflow %q not registered", req.Workflow)
	}
	if req.ID == "" {
		return nil, errors.New("workflow id is required")
	}

	wctx := &wfCtx{
		ctx:     ctx,
		id:      req.ID,
		runID:   req.ID,
		logger:  telemetry.NewNoopLogger(),
		metrics: telemetry.NewNoopMetrics(),
		tracer:  telemetry.NewNoopTracer(),
		eng:     e,
		sigs:    map[string]*signalChan{},
	}
	h := &handle{done: make(chan struct{}), wfCtx: wctx, queries: map[string]any{}, workflowName: req.Workflow}
	wctx.self = h

	e.mu.Lock()
	e.statuses[req.ID] = engine.RunStatusRunning
	e.handles[req.ID] = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		res, err := def.Handler(wctx, req.Input)
		h.mu.Lock()
		h.result, h.err = res, err
		h.mu.Unlock()

		e.mu.Lock()
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			e.statuses[req.ID] = engine.RunStatusCanceled
		case err != nil:
			e.statuses[req.ID] = engine.RunStatusFailed
		default:
			e.statuses[req.ID] = engine.RunStatusCompleted
		}
		e.mu.Unlock()
	}()

	return h, nil
}

func (e *eng) QueryRunStatus(_ context.Context, workflowID string) (engine.RunStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	status, ok := e.statuses[workflowID]
	if !ok {
		return "", engine.ErrWorkflowNotFound
	}
	return status, nil
}

func (e *eng) SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error {
	e.mu.RLock()
	h, ok := e.handles[workflowID]
	e.mu.RUnlock()
	if !ok {
		return engine.ErrWorkflowNotFound
	}
	return h.Signal(ctx, signalName, payload)
}

func (e *eng) QueryWorkflow(ctx context.Context, workflowID, queryName string, args, result any) error {
	e.mu.RLock()
	h, ok := e.handles[workflowID]
	e.mu.RUnlock()
	if !ok {
		return engine.ErrWorkflowNotFound
	}
	return h.Query(ctx, queryName, args, result)
}

func (e *eng) ListWorkflows(_ context.Context, workflowName string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var ids []string
	for id, h := range e.handles {
		if h.workflowName != workflowName {
			continue
		}
		if e.statuses[id] != engine.RunStatusRunning {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *wfCtx) StartChildWorkflow(ctx context.Context, req engine.ChildWorkflowRequest) (engine.ChildWorkflowHandle, error) {
	h, err := w.eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:          req.ID,
		Workflow:    req.Workflow,
		TaskQueue:   req.TaskQueue,
		Input:       req.Input,
		RunTimeout:  req.RunTimeout,
		RetryPolicy: req.RetryPolicy,
	})
	if err != nil {
		return nil, err
	}
	return &childHandle{h: h.(*handle)}, nil
}

func (c *childHandle) Get(ctx context.Context, result any) error { return c.h.Wait(ctx, result) }
func (c *childHandle) Cancel(ctx context.Context) error          { return c.h.Cancel(ctx) }
func (c *childHandle) RunID() string                             { return c.h.wfCtx.runID }

func (c *childHandle) IsReady() bool {
	select {
	case <-c.h.done:
		return true
	default:
		return false
	}
}

func (h *handle) Wait(ctx context.Context, result any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		assignResult(result, h.result)
		return h.err
	}
}

func (h *handle) Signal(ctx context.Context, name string, payload any) error {
	ch := h.wfCtx.SignalChannel(name).(*signalChan)
	select {
	case ch.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return errors.New("workflow completed")
	}
}

func (h *handle) Query(_ context.Context, name string, args any, result any) error {
	h.mu.Lock()
	fn, ok := h.queries[name]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("query %q not registered", name)
	}
	return invokeQueryHandler(fn, args, result)
}

func (h *handle) Cancel(context.Context) error {
	// Best-effort: the in-memory engine does not propagate cancellation
	// into running goroutines.
	return nil
}

func (w *wfCtx) Context() context.Context   { return w.ctx }
func (w *wfCtx) WorkflowID() string         { return w.id }
func (w *wfCtx) RunID() string              { return w.runID }
func (w *wfCtx) Logger() telemetry.Logger   { return w.logger }
func (w *wfCtx) Metrics() telemetry.Metrics { return w.metrics }
func (w *wfCtx) Tracer() telemetry.Tracer   { return w.tracer }
func (w *wfCtx) Now() time.Time             { return time.Now() }
func (w *wfCtx) Detached() context.Context  { return context.Background() }

// NewUUID generates a UUID directly; the in-memory engine makes no
// replay-determinism guarantee, so there is no history to record it into.
func (w *wfCtx) NewUUID() string { return uuid.NewString() }

func (w *wfCtx) SetQueryHandler(name string, handler any) error {
	w.self.mu.Lock()
	defer w.self.mu.Unlock()
	w.self.queries[name] = handler
	return nil
}

func (w *wfCtx) Await(ctx context.Context, cond func() bool) error {
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

func (w *wfCtx) ExecuteActivity(ctx context.Context, req engine.ActivityRequest, result any) error {
	fut, err := w.ExecuteActivityAsync(ctx, req)
	if err != nil {
		return err
	}
	return fut.Get(ctx, result)
}

func (w *wfCtx) ExecuteActivityAsync(ctx context.Context, req engine.ActivityRequest) (engine.Future, error) {
	w.eng.mu.RLock()
	def, ok := w.eng.activities[req.Name]
	w.eng.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("activity %q not registered", req.Name)
	}
	f := &future{ready: make(chan struct{})}
	go func() {
		defer close(f.ready)
		res, err := def.Handler(ctx, req.Input)
		f.mu.Lock()
		f.result, f.err = res, err
		f.mu.Unlock()
	}()
	return f, nil
}

func (w *wfCtx) NewTimer(ctx context.Context, d time.Duration) engine.Future {
	f := &future{ready: make(chan struct{})}
	if d <= 0 {
		close(f.ready)
		return f
	}
	go func() {
		defer close(f.ready)
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			f.mu.Lock()
			f.err = ctx.Err()
			f.mu.Unlock()
		}
	}()
	return f
}

func (f *future) Get(ctx context.Context, result any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.ready:
		f.mu.Lock()
		defer f.mu.Unlock()
		assignResult(result, f.result)
		return f.err
	}
}

func (f *future) IsReady() bool {
	select {
	case <-f.ready:
		return true
	default:
		return false
	}
}

func (s *signalChan) Receive(ctx context.Context, dest any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case v := <-s.ch:
		assignResult(dest, v)
		return nil
	}
}

func (s *signalChan) ReceiveWithTimeout(ctx context.Context, dest any, d time.Duration) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case v := <-s.ch:
		assignResult(dest, v)
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

func (s *signalChan) ReceiveAsync(dest any) bool {
	select {
	case v := <-s.ch:
		assignResult(dest, v)
		return true
	default:
		return false
	}
}

func (w *wfCtx) SignalChannel(name string) engine.SignalChannel {
	w.sigMu.Lock()
	defer w.sigMu.Unlock()
	ch, ok := w.sigs[name]
	if !ok {
		ch = &signalChan{ch: make(chan any, 8)}
		w.sigs[name] = ch
	}
	return ch
}

func assignResult(dst, src any) {
	if dst == nil || src == nil {
		return
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return
	}
	sv := reflect.ValueOf(src)
	if sv.IsValid() && sv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(sv)
		return
	}
	if dv.Elem().Kind() == reflect.Interface && sv.Type().Implements(dv.Elem().Type()) {
		dv.Elem().Set(sv)
	}
}

// invokeQueryHandler calls a query handler registered via SetQueryHandler.
// Handlers follow the func(args A) (R, error) shape used throughout the
// workflows package (e.g. getState takes no args).
func invokeQueryHandler(handler, args, result any) error {
	hv := reflect.ValueOf(handler)
	if hv.Kind() != reflect.Func {
		return errors.New("query handler must be a function")
	}
	ht := hv.Type()
	var in []reflect.Value
	if ht.NumIn() == 1 {
		argVal := reflect.New(ht.In(0)).Elem()
		if args != nil {
			av := reflect.ValueOf(args)
			if av.Type().AssignableTo(ht.In(0)) {
				argVal.Set(av)
			}
		}
		in = []reflect.Value{argVal}
	}
	out := hv.Call(in)
	if len(out) == 0 {
		return nil
	}
	if len(out) == 2 {
		if errVal := out[1].Interface(); errVal != nil {
			if err, ok := errVal.(error); ok && err != nil {
				return err
			}
		}
	}
	assignResult(result, out[0].Interface())
	return nil
}
