package connector

import (
	"context"
	"fmt"
	"net/http"
)

// HubspotFormsURL is the root of the Hubspot form submission API.
const HubspotFormsURL = "https://api.hsforms.com"

// FormField is one submitted value.
type FormField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Hubspot submits marketing forms.
type Hubspot struct {
	Client  Doer
	BaseURL string
}

// Submit posts fields to the form and returns the decoded reply.
func (h *Hubspot) Submit(ctx context.Context, portalID, formGUID string, fields []FormField) (map[string]interface{}, error) {
	base := h.BaseURL
	if base == "" {
		base = HubspotFormsURL
	}
	target := fmt.Sprintf("%s/submissions/v3/integration/submit/%s/%s", base, portalID, formGUID)
	out := map[string]interface{}{}
	if err := sendJSON(ctx, h.Client, http.MethodPost, target, map[string]interface{}{"fields": fields}, &out, nil); err != nil {
		return nil, fmt.Errorf("submit hubspot form %s: %w", formGUID, err)
	}
	return out, nil
}
