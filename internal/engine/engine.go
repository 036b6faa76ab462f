// Package engine dispatches webhook requests to action executors and hands
// the resulting audit records to background writers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/config"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/metrics"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/store"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Engine runs one action per webhook request.
type Engine struct {
	store     store.Store
	registry  *action.Registry
	script    expression.ScriptEvaluator
	sink      audit.Sink
	auditPool *workerPool[*audit.Record]
	conf      *config.EngineConf
}

// New creates an Engine using conf and starts the audit writers. script may
// be nil, in which case script-mode expressions never resolve.
func New(ctx context.Context, st store.Store, reg *action.Registry, script expression.ScriptEvaluator, sink audit.Sink, conf config.EngineConf) *Engine {
	e := &Engine{
		store:    st,
		registry: reg,
		script:   script,
		sink:     sink,
		conf:     &conf,
	}
	e.auditPool = newWorkerPool[*audit.Record](ctx, conf.AuditWorkers, conf.AuditQueueDepth, e.writeRecord)
	return e
}

// Handle runs the action named by req. It returns nil when the request names
// no action and an empty result when the action is unknown. Failures of the
// action itself are part of the result; an error means the store could not
// be read.
func (e *Engine) Handle(ctx context.Context, req *tracker.Request) (*tracker.Result, error) {
	if req.NextAction == "" {
		return nil, nil
	}
	metrics.RequestsReceived.Inc()
	start := time.Now()

	// The dispatch outlives a client that hangs up, bounded by its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.requestTimeout())
	defer cancel()

	t := &req.Tracker
	d, err := e.store.Action(ctx, t.Bot(), req.NextAction)
	if errors.Is(err, store.ErrNotFound) {
		metrics.UnknownActions.Inc()
		slog.Debug("unknown action", "action", req.NextAction, "bot", t.Bot())
		return tracker.NewResult(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup action %s: %w", req.NextAction, err)
	}

	exec, err := e.registry.Get(d.Type)
	if err != nil {
		slog.Warn("no executor for action", "action", d.Name, "type", d.Type, "bot", d.Bot)
		return tracker.NewResult(), nil
	}

	rec := audit.NewRecord(string(d.Type), d.Name, d.Bot, t.SenderID, t.TopIntent())
	ac := &action.Context{
		Request: req,
		Action:  d,
		Record:  rec,
		Params:  param.NewResolver(t, d.Bot, e.store),
		Eval:    expression.NewEvaluator(e.script, rec),
		Store:   e.store,
	}

	res, err := e.execute(ctx, exec, ac)
	if errors.Is(err, action.ErrConfigNotFound) {
		slog.Debug("action has no config", "action", d.Name, "bot", d.Bot, "err", err)
		metrics.ActionsExecuted.WithLabelValues(string(d.Type), "skipped").Inc()
		return tracker.NewResult(), nil
	}
	if err != nil {
		res = action.Fail(ac, action.FailureText, err, true)
	}
	if res == nil {
		res = tracker.NewResult()
	}

	metrics.ActionsExecuted.WithLabelValues(string(d.Type), string(rec.Status)).Inc()
	metrics.DispatchDuration.WithLabelValues(string(d.Type)).Observe(float64(time.Since(start).Milliseconds()))
	e.emit(rec)
	return res, nil
}

// execute loads the action's config and runs it. A config that cannot be
// read for a reason other than absence is an error.
func (e *Engine) execute(ctx context.Context, exec action.Executor, ac *action.Context) (*tracker.Result, error) {
	cfg, err := e.store.Config(ctx, ac.Action)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cfg = nil
	case err != nil:
		return nil, fmt.Errorf("load config of %s: %w", ac.Action.Name, err)
	}
	ac.Config = cfg
	return exec.Execute(ctx, ac)
}

// emit queues rec for the audit writers. A full queue drops the record.
func (e *Engine) emit(rec *audit.Record) {
	if !e.auditPool.Submit(rec) {
		metrics.AuditDropped.Inc()
		slog.Warn("audit record dropped", "id", rec.ID, "action", rec.Action, "bot", rec.Bot)
	}
	metrics.AuditQueueUtilization.Set(e.QueueUtilization())
}

func (e *Engine) writeRecord(ctx context.Context, rec *audit.Record) {
	timeout := time.Duration(e.conf.AuditTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	status := "ok"
	if err := e.sink.Write(ctx, rec); err != nil {
		status = "error"
		slog.Error("audit write failed", "sink", e.sink.Name(), "id", rec.ID, "err", err)
	}
	metrics.AuditWritten.WithLabelValues(e.sink.Name(), status).Inc()
	metrics.AuditQueueUtilization.Set(e.QueueUtilization())
}

func (e *Engine) requestTimeout() time.Duration {
	if e.conf.RequestTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.conf.RequestTimeoutMs) * time.Millisecond
}

// Types lists the action types the engine can run.
func (e *Engine) Types() []model.ActionType {
	return e.registry.Types()
}

// QueueUtilization returns audit queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.auditPool.QueueCap() == 0 {
		return 0
	}
	return float64(e.auditPool.QueueLen()) / float64(e.auditPool.QueueCap())
}

// Shutdown writes the queued audit records and stops the writers.
func (e *Engine) Shutdown() {
	e.auditPool.Drain()
}
