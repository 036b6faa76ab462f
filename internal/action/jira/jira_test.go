package jira

import (
	"context"
	"errors"
	"strings"
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

type fakeIssues struct {
	got connector.Issue
	err error
}

func (f *fakeIssues) CreateIssue(_ context.Context, in connector.Issue) (string, error) {
	f.got = in
	return "HEL-4", f.err
}

func config() *model.JiraConfig {
	return &model.JiraConfig{
		URL:        "https://test-digite.atlassian.net",
		UserName:   "test@digite.com",
		APIToken:   param.Descriptor{Key: "api_token", Source: param.SourceVault, Value: "JIRA_TOKEN"},
		ProjectKey: "HEL",
		IssueType:  "Bug",
		Summary:    "fallback",
		Response:   "Successfully created",
	}
}

func run(t *testing.T, f *fakeIssues) (*tracker.Result, *audit.Record) {
	t.Helper()
	s := actiontest.NewStore()
	s.Secrets["JIRA_TOKEN"] = "ASDFGHJKL"
	s.Add("jira_action", config())
	ac := actiontest.Context(actiontest.Request("jira_action", nil), s, "jira_action", nil)
	res, err := New(f).Execute(context.Background(), ac)
	require.NoError(t, err)
	return res, ac.Record
}

func TestExecute(t *testing.T) {
	f := &fakeIssues{}
	res, rec := run(t, f)

	assert.Equal(t, "ASDFGHJKL", f.got.APIToken)
	assert.Equal(t, "HEL", f.got.ProjectKey)
	assert.True(t, strings.HasPrefix(f.got.Description, "user: hi\n"))
	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, "Successfully created")}, res.Events)
	assert.Equal(t, "Successfully created", *res.Responses[0].Text)
	assert.Equal(t, audit.StatusSuccess, rec.Status)
	assert.Contains(t, rec.Messages, "issue: HEL-4")
}

func TestExecuteFailure(t *testing.T) {
	res, rec := run(t, &fakeIssues{err: errors.New("401 unauthorized")})

	assert.Equal(t, []tracker.SlotEvent{tracker.SetSlot(action.ResponseSlot, action.IssueFailureText)}, res.Events)
	assert.Equal(t, action.IssueFailureText, *res.Responses[0].Text)
	assert.Equal(t, audit.StatusFailure, rec.Status)
}
