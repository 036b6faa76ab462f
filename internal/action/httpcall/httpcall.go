// Package httpcall implements the http action: it calls a configured
// endpoint and turns the reply into a bot response and slot values.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Executor runs http actions.
type Executor struct {
	client connector.Doer
}

// New returns an Executor sending requests through client.
func New(client connector.Doer) *Executor {
	return &Executor{client: client}
}

func (*Executor) Type() model.ActionType { return model.TypeHTTP }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.HTTPConfig](ac)
	if err != nil {
		return nil, err
	}
	rec := ac.Record
	rec.URL = cfg.URL
	rec.RequestMethod = cfg.RequestMethod()
	dispatch := cfg.Response.Dispatched()

	headers, err := ac.Params.ResolveAll(ctx, cfg.Headers)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, dispatch), nil
	}
	rec.Headers = headers.Logged()
	params, err := ac.Params.ResolveAll(ctx, cfg.Params)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, dispatch), nil
	}
	rec.RequestParams = params.Logged()

	body, err := e.call(ctx, cfg, headers.Values(), params.Values())
	if err != nil {
		return action.Fail(ac, action.FailureText, err, dispatch), nil
	}
	data := expression.Decode(body)
	rec.APIResponse = expression.Stringify(data)

	var reply string
	if cfg.Response.Value == "" {
		reply = rec.APIResponse
	} else {
		v, ok := ac.Eval.Evaluate(ctx, cfg.Response.Value, data, cfg.Response.Mode())
		if !ok && cfg.Response.Mode() == expression.ModeScript {
			return action.Fail(ac, action.FailureText, fmt.Errorf("could not evaluate response %q", cfg.Response.Value), dispatch), nil
		}
		reply = expression.Stringify(v)
	}

	res := tracker.NewResult()
	if len(cfg.SetSlots) > 0 {
		rec.Trace("initiating slot evaluation")
		for _, s := range cfg.SetSlots {
			res.SetSlot(s.Name, slotValue(ac.Eval.EvaluateSlot(ctx, s.Name, s.Value, data, s.Mode())))
		}
	}
	out := action.Reply(ac, reply, dispatch)
	res.Events = append(res.Events, out.Events...)
	res.Responses = append(res.Responses, out.Responses...)
	return res, nil
}

// slotValue renders an evaluated slot value as text. Unresolved values stay
// nil so the slot is cleared.
func slotValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return expression.Stringify(v)
}

func (e *Executor) call(ctx context.Context, cfg *model.HTTPConfig, headers, params param.Ordered) ([]byte, error) {
	method := cfg.RequestMethod()
	target := cfg.URL
	var body io.Reader
	contentType := ""

	switch {
	case len(params) == 0:
	case cfg.ContentType == model.ContentData && (method == http.MethodGet || method == http.MethodDelete):
		target = withQuery(target, params.Encode())
	case cfg.ContentType == model.ContentData:
		body = strings.NewReader(params.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i, h := range headers {
		req.Header.Set(h.Key, headers.Text(i))
	}
	return connector.Do(e.client, req)
}

func withQuery(target, query string) string {
	if query == "" {
		return target
	}
	if strings.Contains(target, "?") {
		return target + "&" + query
	}
	return target + "?" + query
}
