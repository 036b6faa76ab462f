// Package jira implements the jira action, which files the conversation as
// an issue.
package jira

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/connector"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// IssueCreator files issues.
type IssueCreator interface {
	CreateIssue(ctx context.Context, in connector.Issue) (string, error)
}

// Executor runs jira actions.
type Executor struct {
	issues IssueCreator
}

// New returns an Executor filing issues through issues.
func New(issues IssueCreator) *Executor {
	return &Executor{issues: issues}
}

func (*Executor) Type() model.ActionType { return model.TypeJira }

func (e *Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.JiraConfig](ac)
	if err != nil {
		return nil, err
	}
	token, err := ac.Params.String(ctx, cfg.APIToken)
	if err != nil {
		return action.Fail(ac, action.IssueFailureText, err, true), nil
	}
	ac.Record.URL = cfg.URL
	key, err := e.issues.CreateIssue(ctx, connector.Issue{
		URL:         cfg.URL,
		UserName:    cfg.UserName,
		APIToken:    token,
		ProjectKey:  cfg.ProjectKey,
		IssueType:   cfg.IssueType,
		ParentKey:   cfg.ParentKey,
		Summary:     cfg.Summary,
		Description: action.HistoryText(ac.Tracker()),
	})
	if err != nil {
		return action.Fail(ac, action.IssueFailureText, err, true), nil
	}
	ac.Record.Trace(fmt.Sprintf("issue: %s", key))
	return action.Reply(ac, cfg.Response, true), nil
}
