package expression

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/metrics"
)

// Mode selects how an expression is evaluated.
type Mode string

const (
	// ModeExpression substitutes ${...} placeholders locally.
	ModeExpression Mode = "expression"
	// ModeScript sends the expression verbatim to a script evaluator.
	ModeScript Mode = "script"
)

// ScriptResult is the reply contract of a script evaluator.
type ScriptResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ScriptEvaluator runs a script against a data document.
type ScriptEvaluator interface {
	EvaluateScript(ctx context.Context, script string, data interface{}) (*ScriptResult, error)
}

// Tracer receives one human-readable entry per evaluation attempt.
type Tracer interface {
	Trace(msg string)
}

// Evaluator evaluates response templates for one action invocation. Every
// attempt, resolved or not, is reported to the tracer in the order performed.
type Evaluator struct {
	script ScriptEvaluator
	tracer Tracer
}

// NewEvaluator returns an Evaluator. script may be nil, in which case every
// script-mode evaluation is unresolved.
func NewEvaluator(script ScriptEvaluator, tracer Tracer) *Evaluator {
	return &Evaluator{script: script, tracer: tracer}
}

// Extract substitutes every ${path} of template with the stringified value
// found in data. Unresolved paths are replaced with the Unresolved marker and
// reported through the second result.
func (e *Evaluator) Extract(template string, data interface{}) (string, bool) {
	out, ok := extract(template, data)
	e.trace("", template, data, out)
	return out, ok
}

// Evaluate evaluates expr in the given mode. In expression mode the result is
// always the substituted string and ok reports whether every path resolved.
// In script mode the evaluator's data is returned verbatim; an unsuccessful
// or failed evaluation yields (nil, false).
func (e *Evaluator) Evaluate(ctx context.Context, expr string, data interface{}, mode Mode) (interface{}, bool) {
	return e.evaluate(ctx, "", expr, data, mode)
}

// EvaluateSlot is Evaluate for an expression whose result is assigned to a
// slot. Unresolved expressions yield nil so the slot is cleared.
func (e *Evaluator) EvaluateSlot(ctx context.Context, slot, expr string, data interface{}, mode Mode) interface{} {
	v, ok := e.evaluate(ctx, slot, expr, data, mode)
	if !ok {
		return nil
	}
	return v
}

func (e *Evaluator) evaluate(ctx context.Context, slot, expr string, data interface{}, mode Mode) (interface{}, bool) {
	if mode != ModeScript {
		out, ok := extract(expr, data)
		e.trace(slot, expr, data, out)
		return out, ok
	}
	if e.script == nil {
		metrics.ScriptEvaluations.WithLabelValues("unavailable").Inc()
		e.trace(slot, expr, data, nil)
		return nil, false
	}
	res, err := e.script.EvaluateScript(ctx, expr, data)
	if err != nil || res == nil || !res.Success {
		metrics.ScriptEvaluations.WithLabelValues("failure").Inc()
		e.trace(slot, expr, data, nil)
		return nil, false
	}
	metrics.ScriptEvaluations.WithLabelValues("success").Inc()
	e.trace(slot, expr, data, res.Data)
	return res.Data, true
}

func (e *Evaluator) trace(slot, expr string, data, result interface{}) {
	if e.tracer == nil {
		return
	}
	msg := fmt.Sprintf("expression: %s || data: %s || response: %s", expr, Stringify(data), Stringify(result))
	if slot != "" {
		msg = "slot: " + slot + " || " + msg
	}
	e.tracer.Trace(msg)
}

func extract(template string, data interface{}) (string, bool) {
	resolved := true
	out := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		path := placeholder.FindStringSubmatch(m)[1]
		v, ok := Resolve(data, path)
		if !ok {
			resolved = false
			return Unresolved
		}
		return Stringify(v)
	})
	return out, resolved
}
