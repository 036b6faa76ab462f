package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Lead is a Pipedrive lead with the person and organization behind it.
type Lead struct {
	Domain   string
	APIToken string
	Title    string
	Name     string
	OrgName  string
	Email    string
	Phone    string
	// Note is attached to the lead once it exists.
	Note string
}

// Pipedrive creates leads through the Pipedrive REST API.
type Pipedrive struct {
	Client Doer
}

type pipedriveReply struct {
	Success bool `json:"success"`
	Data    struct {
		ID interface{} `json:"id"`
	} `json:"data"`
	Error string `json:"error"`
}

// CreateLead creates the organization, the person, the lead and its note, in
// that order. The first failing step aborts the sequence.
func (p *Pipedrive) CreateLead(ctx context.Context, in Lead) (interface{}, error) {
	orgName := in.OrgName
	if orgName == "" {
		orgName = in.Name
	}
	orgID, err := p.create(ctx, in, "organizations", map[string]interface{}{"name": orgName})
	if err != nil {
		return nil, err
	}
	person := map[string]interface{}{"name": in.Name, "org_id": orgID}
	if in.Email != "" {
		person["email"] = []string{in.Email}
	}
	if in.Phone != "" {
		person["phone"] = []string{in.Phone}
	}
	personID, err := p.create(ctx, in, "persons", person)
	if err != nil {
		return nil, err
	}
	leadID, err := p.create(ctx, in, "leads", map[string]interface{}{
		"title":           in.Title,
		"person_id":       personID,
		"organization_id": orgID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.create(ctx, in, "notes", map[string]interface{}{"content": in.Note, "lead_id": leadID}); err != nil {
		return nil, err
	}
	return leadID, nil
}

func (p *Pipedrive) create(ctx context.Context, in Lead, entity string, body map[string]interface{}) (interface{}, error) {
	target := strings.TrimRight(in.Domain, "/") + "/api/v1/" + entity + "?api_token=" + url.QueryEscape(in.APIToken)
	var out pipedriveReply
	if err := sendJSON(ctx, p.Client, http.MethodPost, target, body, &out, nil); err != nil {
		return nil, fmt.Errorf("create pipedrive %s: %w", entity, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("create pipedrive %s: %s", entity, out.Error)
	}
	return out.Data.ID, nil
}
