// Package email implements the email action, which mails the conversation
// history to a fixed list of recipients.
package email

import (
	"context"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, m connector.Mail) error
}

// Executor runs email actions.
type Executor struct {
	mailer Mailer
}

// New returns an Executor delivering through mailer.
func New(mailer Mailer) *Executor {
	return &Executor{mailer: mailer}
}

func (*Executor) Type() model.ActionType { return model.TypeEmail }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.EmailConfig](ac)
	if err != nil {
		return nil, err
	}
	password, err := ac.Params.String(ctx, cfg.SMTPPassword)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, true), nil
	}
	// The sender address doubles as the login when no user id is configured.
	user := cfg.FromEmail
	if cfg.SMTPUserID != nil {
		if user, err = ac.Params.String(ctx, *cfg.SMTPUserID); err != nil {
			return action.Fail(ac, action.FailureText, err, true), nil
		}
	}
	t := ac.Tracker()
	body, err := action.HistoryHTML(t)
	if err != nil {
		return action.Fail(ac, action.FailureText, err, true), nil
	}

	err = e.mailer.Send(ctx, connector.Mail{
		Host:     cfg.SMTPURL,
		Port:     cfg.SMTPPort,
		TLS:      cfg.TLS,
		User:     user,
		Password: password,
		From:     cfg.FromEmail,
		To:       cfg.ToEmail,
		Subject:  t.SenderID + " " + cfg.Subject,
		HTML:     body,
	})
	if err != nil {
		return action.Fail(ac, action.FailureText, err, true), nil
	}
	return action.Reply(ac, cfg.Response, true), nil
}
