package connector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Issue is a Jira issue to create.
type Issue struct {
	URL         string
	UserName    string
	APIToken    string
	ProjectKey  string
	IssueType   string
	ParentKey   string
	Summary     string
	Description string
}

// Jira creates issues through the Jira REST API.
type Jira struct {
	Client Doer
}

type jiraKey struct {
	Key string `json:"key,omitempty"`
}

type jiraFields struct {
	Project     jiraKey  `json:"project"`
	IssueType   jiraName `json:"issuetype"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Parent      *jiraKey `json:"parent,omitempty"`
}

type jiraName struct {
	Name string `json:"name"`
}

// CreateIssue creates the issue and returns its key.
func (j *Jira) CreateIssue(ctx context.Context, in Issue) (string, error) {
	fields := jiraFields{
		Project:     jiraKey{Key: in.ProjectKey},
		IssueType:   jiraName{Name: in.IssueType},
		Summary:     in.Summary,
		Description: in.Description,
	}
	if in.ParentKey != "" {
		fields.Parent = &jiraKey{Key: in.ParentKey}
	}
	var out jiraKey
	target := strings.TrimRight(in.URL, "/") + "/rest/api/2/issue"
	err := sendJSON(ctx, j.Client, http.MethodPost, target, map[string]interface{}{"fields": fields}, &out,
		func(r *http.Request) { r.SetBasicAuth(in.UserName, in.APIToken) })
	if err != nil {
		return "", fmt.Errorf("create jira issue in %s: %w", in.ProjectKey, err)
	}
	return out.Key, nil
}
