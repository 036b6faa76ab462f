// Package pipedrive implements the pipedrive_leads action, which turns the
// contact details a bot collected into a CRM lead.
package pipedrive

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// LeadCreator creates leads.
type LeadCreator interface {
	CreateLead(ctx context.Context, in connector.Lead) (interface{}, error)
}

// Executor runs pipedrive_leads actions.
type Executor struct {
	leads LeadCreator
}

// New returns an Executor creating leads through leads.
func New(leads LeadCreator) *Executor {
	return &Executor{leads: leads}
}

func (*Executor) Type() model.ActionType { return model.TypePipedrive }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.PipedriveConfig](ac)
	if err != nil {
		return nil, err
	}
	token, err := ac.Params.String(ctx, cfg.APIToken)
	if err != nil {
		return action.Fail(ac, action.LeadFailureText, err, true), nil
	}
	t := ac.Tracker()
	field := func(name string) string {
		slot := cfg.Metadata[name]
		if slot == "" {
			return ""
		}
		v, _ := t.Slot(slot)
		if v == nil {
			return ""
		}
		return expression.Stringify(v)
	}
	lead := connector.Lead{
		Domain:   cfg.Domain,
		APIToken: token,
		Title:    cfg.Title,
		Name:     field("name"),
		OrgName:  field("org_name"),
		Email:    field("email"),
		Phone:    field("phone"),
	}
	if lead.Name == "" {
		return action.Fail(ac, action.LeadFailureText, fmt.Errorf("slot %q is not set", cfg.Metadata["name"]), true), nil
	}
	if lead.Note, err = action.HistoryHTML(t); err != nil {
		return action.Fail(ac, action.LeadFailureText, err, true), nil
	}
	ac.Record.URL = cfg.Domain

	id, err := e.leads.CreateLead(ctx, lead)
	if err != nil {
		return action.Fail(ac, action.LeadFailureText, err, true), nil
	}
	ac.Record.Trace(fmt.Sprintf("lead: %s", expression.Stringify(id)))
	return action.Reply(ac, cfg.Response, true), nil
}
