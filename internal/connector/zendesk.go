package connector

import (
	"context"
	"fmt"
	"net/http"
)

// Ticket is a Zendesk ticket to open.
type Ticket struct {
	Subdomain string
	UserName  string
	APIToken  string
	Subject   string
	// Comment is the HTML body of the first comment.
	Comment string
}

// Zendesk opens tickets through the Zendesk REST API.
type Zendesk struct {
	Client Doer
	// BaseURL maps a subdomain to the API root. Defaults to
	// https://<subdomain>.zendesk.com.
	BaseURL func(subdomain string) string
}

// CreateTicket opens the ticket and returns its id.
func (z *Zendesk) CreateTicket(ctx context.Context, in Ticket) (int64, error) {
	base := "https://" + in.Subdomain + ".zendesk.com"
	if z.BaseURL != nil {
		base = z.BaseURL(in.Subdomain)
	}
	body := map[string]interface{}{
		"ticket": map[string]interface{}{
			"subject": in.Subject,
			"comment": map[string]string{"html_body": in.Comment},
		},
	}
	var out struct {
		Ticket struct {
			ID int64 `json:"id"`
		} `json:"ticket"`
	}
	err := sendJSON(ctx, z.Client, http.MethodPost, base+"/api/v2/tickets.json", body, &out,
		func(r *http.Request) { r.SetBasicAuth(in.UserName+"/token", in.APIToken) })
	if err != nil {
		return 0, fmt.Errorf("create zendesk ticket on %s: %w", in.Subdomain, err)
	}
	return out.Ticket.ID, nil
}
