package zendesk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/actiontest"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

type fakeTickets struct {
	got connector.Ticket
	err error
}

func (f *fakeTickets) CreateTicket(_ context.Context, in connector.Ticket) (int64, error) {
	f.got = in
	return 35436, f.err
}

func run(t *testing.T, f *fakeTickets) (*tracker.Result, *audit.Record) {
	t.Helper()
	s := actiontest.NewStore()
	s.Add("zendesk_action", &model.ZendeskConfig{
		Subdomain: "digite751",
		UserName:  "udit.pandey@digite.com",
		APIToken:  param.Descriptor{Value: "123456wertyu"},
		Subject:   "new ticket",
		Response:  "ticket filed",
	})
	ac := actiontest.Context(actiontest.Request("zendesk_action", nil), s, "zendesk_action", nil)
	res, err := New(f).Execute(context.Background(), ac)
	require.NoError(t, err)
	return res, ac.Record
}

func TestExecute(t *testing.T) {
	f := &fakeTickets{}
	res, rec := run(t, f)

	assert.Equal(t, "digite751", f.got.Subdomain)
	assert.Equal(t, "123456wertyu", f.got.APIToken)
	assert.Contains(t, f.got.Comment, "<table")
	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, "ticket filed")}, res.Events)
	assert.Equal(t, "ticket filed", *res.Responses[0].Text)
	assert.Equal(t, audit.StatusSuccess, rec.Status)
}

func TestExecuteFailure(t *testing.T) {
	res, rec := run(t, &fakeTickets{err: errors.New("invalid subdomain")})

	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, action.IssueFailureText)}, res.Events)
	assert.Equal(t, action.IssueFailureText, *res.Responses[0].Text)
	assert.Equal(t, audit.StatusFailure, rec.Status)
	assert.Equal(t, "invalid subdomain", rec.Exception)
}
