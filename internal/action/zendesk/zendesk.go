// Package zendesk implements the zendesk action, which opens a helpdesk
// ticket carrying the conversation.
package zendesk

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// TicketCreator opens tickets.
type TicketCreator interface {
	CreateTicket(ctx context.Context, in connector.Ticket) (int64, error)
}

// Executor runs zendesk actions.
type Executor struct {
	tickets TicketCreator
}

// New returns an Executor opening tickets through tickets.
func New(tickets TicketCreator) *Executor {
	return &Executor{tickets: tickets}
}

func (*Executor) Type() model.ActionType { return model.TypeZendesk }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.ZendeskConfig](ac)
	if err != nil {
		return nil, err
	}
	token, err := ac.Params.String(ctx, cfg.APIToken)
	if err != nil {
		return action.Fail(ac, action.IssueFailureText, err, true), nil
	}
	comment, err := action.HistoryHTML(ac.Tracker())
	if err != nil {
		return action.Fail(ac, action.IssueFailureText, err, true), nil
	}
	id, err := e.tickets.CreateTicket(ctx, connector.Ticket{
		Subdomain: cfg.Subdomain,
		UserName:  cfg.UserName,
		APIToken:  token,
		Subject:   cfg.Subject,
		Comment:   comment,
	})
	if err != nil {
		return action.Fail(ac, action.IssueFailureText, err, true), nil
	}
	ac.Record.Trace(fmt.Sprintf("ticket: %d", id))
	return action.Reply(ac, cfg.Response, true), nil
}
