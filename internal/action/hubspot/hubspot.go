// Package hubspot implements the hubspot_forms action, which submits slot
// values to a marketing form.
package hubspot

import (
	"context"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// FormSubmitter submits forms.
type FormSubmitter interface {
	Submit(ctx context.Context, portalID, formGUID string, fields []connector.FormField) (map[string]interface{}, error)
}

// Executor runs hubspot_forms actions.
type Executor struct {
	forms FormSubmitter
}

// New returns an Executor submitting through forms.
func New(forms FormSubmitter) *Executor {
	return &Executor{forms: forms}
}

func (*Executor) Type() model.ActionType { return model.TypeHubspot }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.HubspotConfig](ac)
	if err != nil {
		return nil, err
	}
	params, err := ac.Params.ResolveAll(ctx, cfg.Fields)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, true), nil
	}
	ac.Record.RequestParams = params.Logged()

	values := params.Values()
	fields := make([]connector.FormField, len(values))
	for i, p := range values {
		fields[i] = connector.FormField{Name: p.Key, Value: p.Value}
	}
	reply, err := e.forms.Submit(ctx, cfg.PortalID, cfg.FormGUID, fields)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, true), nil
	}
	ac.Record.APIResponse = expression.Stringify(reply)
	return action.Reply(ac, cfg.Response, true), nil
}
