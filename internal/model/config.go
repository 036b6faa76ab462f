package model

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/condition"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
)

// ResponseTemplate is the reply an action computes after a successful call.
type ResponseTemplate struct {
	Value          string          `yaml:"value" json:"value"`
	Dispatch       *bool           `yaml:"dispatch" json:"dispatch"`
	EvaluationType expression.Mode `yaml:"evaluation_type" json:"evaluation_type"`
}

// Dispatched reports whether the response is sent to the user. Defaults to
// true.
func (r ResponseTemplate) Dispatched() bool {
	return r.Dispatch == nil || *r.Dispatch
}

// Mode returns the evaluation mode, defaulting to expression.
func (r ResponseTemplate) Mode() expression.Mode {
	return modeOrDefault(r.EvaluationType)
}

// SlotFromResponse assigns a value extracted from an API response to a slot.
type SlotFromResponse struct {
	Name           string          `yaml:"name" json:"name"`
	Value          string          `yaml:"value" json:"value"`
	EvaluationType expression.Mode `yaml:"evaluation_type" json:"evaluation_type"`
}

// Mode returns the evaluation mode, defaulting to expression.
func (s SlotFromResponse) Mode() expression.Mode {
	return modeOrDefault(s.EvaluationType)
}

func modeOrDefault(m expression.Mode) expression.Mode {
	if m == expression.ModeScript {
		return m
	}
	return expression.ModeExpression
}

func validMode(m expression.Mode) bool {
	return m == "" || m == expression.ModeExpression || m == expression.ModeScript
}

// HTTP content types.
const (
	ContentJSON = "json"
	ContentData = "data"
)

// HTTPConfig calls an arbitrary HTTP endpoint.
type HTTPConfig struct {
	URL         string             `yaml:"http_url" json:"http_url"`
	Method      string             `yaml:"request_method" json:"request_method"`
	ContentType string             `yaml:"content_type" json:"content_type"`
	Headers     []param.Descriptor `yaml:"headers" json:"headers"`
	Params      []param.Descriptor `yaml:"params_list" json:"params_list"`
	SetSlots    []SlotFromResponse `yaml:"set_slots" json:"set_slots"`
	Response    ResponseTemplate   `yaml:"response" json:"response"`
}

func (*HTTPConfig) ActionType() ActionType { return TypeHTTP }

// RequestMethod returns the upper-cased method, GET when unset.
func (c *HTTPConfig) RequestMethod() string {
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

func (c *HTTPConfig) Validate() error {
	var p problems
	if c.URL == "" {
		p.addf("http_url is required")
	}
	switch c.RequestMethod() {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		p.addf("request_method %q is not supported", c.Method)
	}
	switch c.ContentType {
	case "", ContentJSON, ContentData:
	default:
		p.addf("content_type %q is not supported", c.ContentType)
	}
	validateParams(&p, "headers", c.Headers)
	validateParams(&p, "params_list", c.Params)
	for i, s := range c.SetSlots {
		if s.Name == "" {
			p.addf("set_slots[%d]: name is required", i)
		}
		if !validMode(s.EvaluationType) {
			p.addf("set_slots[%d]: evaluation_type %q is not supported", i, s.EvaluationType)
		}
	}
	if !validMode(c.Response.EvaluationType) {
		p.addf("response: evaluation_type %q is not supported", c.Response.EvaluationType)
	}
	return p.err()
}

func validateParams(p *problems, field string, ds []param.Descriptor) {
	for i, d := range ds {
		if d.Key == "" {
			p.addf("%s[%d]: key is required", field, i)
		}
		if !d.Source.Valid() {
			p.addf("%s[%d]: parameter_type %q is not supported", field, i, d.Source)
		}
	}
}

func validateParam(p *problems, field string, d param.Descriptor) {
	if !d.Source.Valid() {
		p.addf("%s: parameter_type %q is not supported", field, d.Source)
	}
	if d.Value == "" && d.Source.Canonical() != param.SourceSenderID {
		p.addf("%s: value is required", field)
	}
}

// Slot set directive types.
const (
	FromValue = "from_value"
	FromSlot  = "from_slot"
	ResetSlot = "reset_slot"
)

// SlotDirective writes one slot.
type SlotDirective struct {
	Name  string      `yaml:"name" json:"name"`
	Type  string      `yaml:"type" json:"type"`
	Value interface{} `yaml:"value" json:"value"`
}

// SlotSetConfig sets slots from literals or from other slots.
type SlotSetConfig struct {
	SetSlots []SlotDirective `yaml:"set_slots" json:"set_slots"`
}

func (*SlotSetConfig) ActionType() ActionType { return TypeSlotSet }

func (c *SlotSetConfig) Validate() error {
	var p problems
	if len(c.SetSlots) == 0 {
		p.addf("set_slots must not be empty")
	}
	for i, s := range c.SetSlots {
		switch s.Type {
		case FromValue, ResetSlot:
		case FromSlot:
			if src, _ := s.Value.(string); src == "" {
				p.addf("set_slots[%d]: from_slot requires the source slot name as value", i)
			}
		default:
			p.addf("set_slots[%d]: type %q is not supported", i, s.Type)
		}
		if s.Name == "" {
			p.addf("set_slots[%d]: name is required", i)
		}
	}
	return p.err()
}

// SlotValidation configures the validation of one form slot.
type SlotValidation struct {
	Slot            string          `yaml:"slot" json:"slot"`
	Validation      *condition.Node `yaml:"validation_semantic" json:"validation_semantic"`
	ValidResponse   string          `yaml:"valid_response" json:"valid_response"`
	InvalidResponse string          `yaml:"invalid_response" json:"invalid_response"`
}

// FormValidationConfig validates the slots a form requests.
type FormValidationConfig struct {
	Validations []SlotValidation `yaml:"validations" json:"validations"`
}

func (*FormValidationConfig) ActionType() ActionType { return TypeFormValidation }

// For returns the validation configured for slot.
func (c *FormValidationConfig) For(slot string) (SlotValidation, bool) {
	for _, v := range c.Validations {
		if v.Slot == slot {
			return v, true
		}
	}
	return SlotValidation{}, false
}

// Warnings reports validation trees using operators that always evaluate as
// not satisfied.
func (c *FormValidationConfig) Warnings() []string {
	var out []string
	for _, v := range c.Validations {
		for _, op := range v.Validation.UnknownOperators() {
			out = append(out, fmt.Sprintf("slot %s: unknown operator %q", v.Slot, op))
		}
	}
	return out
}

func (c *FormValidationConfig) Validate() error {
	var p problems
	seen := make(map[string]bool)
	for i, v := range c.Validations {
		if v.Slot == "" {
			p.addf("validations[%d]: slot is required", i)
			continue
		}
		if seen[v.Slot] {
			p.addf("validations[%d]: duplicate slot %q", i, v.Slot)
		}
		seen[v.Slot] = true
	}
	return p.err()
}

// EmailConfig sends the conversation history by mail.
type EmailConfig struct {
	SMTPURL      string            `yaml:"smtp_url" json:"smtp_url"`
	SMTPPort     int               `yaml:"smtp_port" json:"smtp_port"`
	TLS          bool              `yaml:"tls" json:"tls"`
	SMTPUserID   *param.Descriptor `yaml:"smtp_userid" json:"smtp_userid"`
	SMTPPassword param.Descriptor  `yaml:"smtp_password" json:"smtp_password"`
	FromEmail    string            `yaml:"from_email" json:"from_email"`
	ToEmail      []string          `yaml:"to_email" json:"to_email"`
	Subject      string            `yaml:"subject" json:"subject"`
	Response     string            `yaml:"response" json:"response"`
}

func (*EmailConfig) ActionType() ActionType { return TypeEmail }

func (c *EmailConfig) Validate() error {
	var p problems
	if c.SMTPURL == "" {
		p.addf("smtp_url is required")
	}
	if c.SMTPPort <= 0 {
		p.addf("smtp_port must be positive")
	}
	if c.SMTPUserID != nil {
		validateParam(&p, "smtp_userid", *c.SMTPUserID)
	}
	validateParam(&p, "smtp_password", c.SMTPPassword)
	if c.FromEmail == "" {
		p.addf("from_email is required")
	}
	if len(c.ToEmail) == 0 {
		p.addf("to_email must not be empty")
	}
	return p.err()
}

// GoogleSearchConfig answers with web search results.
type GoogleSearchConfig struct {
	APIKey          param.Descriptor `yaml:"api_key" json:"api_key"`
	SearchEngineID  string           `yaml:"search_engine_id" json:"search_engine_id"`
	FailureResponse string           `yaml:"failure_response" json:"failure_response"`
	NumResults      int              `yaml:"num_results" json:"num_results"`
	Dispatch        *bool            `yaml:"dispatch_response" json:"dispatch_response"`
	SetSlot         string           `yaml:"set_slot" json:"set_slot"`
}

func (*GoogleSearchConfig) ActionType() ActionType { return TypeGoogleSearch }

// Results returns the number of results to request, at least one.
func (c *GoogleSearchConfig) Results() int {
	if c.NumResults < 1 {
		return 1
	}
	return c.NumResults
}

// Dispatched reports whether results are sent to the user. Defaults to true.
func (c *GoogleSearchConfig) Dispatched() bool {
	return c.Dispatch == nil || *c.Dispatch
}

func (c *GoogleSearchConfig) Validate() error {
	var p problems
	validateParam(&p, "api_key", c.APIKey)
	if c.SearchEngineID == "" {
		p.addf("search_engine_id is required")
	}
	return p.err()
}

// JiraConfig opens an issue with the conversation history.
type JiraConfig struct {
	URL        string           `yaml:"url" json:"url"`
	UserName   string           `yaml:"user_name" json:"user_name"`
	APIToken   param.Descriptor `yaml:"api_token" json:"api_token"`
	ProjectKey string           `yaml:"project_key" json:"project_key"`
	IssueType  string           `yaml:"issue_type" json:"issue_type"`
	ParentKey  string           `yaml:"parent_key" json:"parent_key"`
	Summary    string           `yaml:"summary" json:"summary"`
	Response   string           `yaml:"response" json:"response"`
}

func (*JiraConfig) ActionType() ActionType { return TypeJira }

func (c *JiraConfig) Validate() error {
	var p problems
	if c.URL == "" {
		p.addf("url is required")
	}
	if c.UserName == "" {
		p.addf("user_name is required")
	}
	validateParam(&p, "api_token", c.APIToken)
	if c.ProjectKey == "" {
		p.addf("project_key is required")
	}
	if c.IssueType == "" {
		p.addf("issue_type is required")
	}
	if strings.EqualFold(c.IssueType, "subtask") && c.ParentKey == "" {
		p.addf("parent_key is required for subtask issues")
	}
	if c.Summary == "" {
		p.addf("summary is required")
	}
	return p.err()
}

// ZendeskConfig opens a helpdesk ticket with the conversation history.
type ZendeskConfig struct {
	Subdomain string           `yaml:"subdomain" json:"subdomain"`
	UserName  string           `yaml:"user_name" json:"user_name"`
	APIToken  param.Descriptor `yaml:"api_token" json:"api_token"`
	Subject   string           `yaml:"subject" json:"subject"`
	Response  string           `yaml:"response" json:"response"`
}

func (*ZendeskConfig) ActionType() ActionType { return TypeZendesk }

func (c *ZendeskConfig) Validate() error {
	var p problems
	if c.Subdomain == "" {
		p.addf("subdomain is required")
	}
	if c.UserName == "" {
		p.addf("user_name is required")
	}
	validateParam(&p, "api_token", c.APIToken)
	if c.Subject == "" {
		p.addf("subject is required")
	}
	return p.err()
}

// PipedriveConfig creates a lead from slots collected by the bot. Metadata
// maps lead fields (name, org_name, email, phone) to slot names.
type PipedriveConfig struct {
	Domain   string            `yaml:"domain" json:"domain"`
	APIToken param.Descriptor  `yaml:"api_token" json:"api_token"`
	Title    string            `yaml:"title" json:"title"`
	Metadata map[string]string `yaml:"metadata" json:"metadata"`
	Response string            `yaml:"response" json:"response"`
}

func (*PipedriveConfig) ActionType() ActionType { return TypePipedrive }

func (c *PipedriveConfig) Validate() error {
	var p problems
	if c.Domain == "" {
		p.addf("domain is required")
	}
	validateParam(&p, "api_token", c.APIToken)
	if c.Title == "" {
		p.addf("title is required")
	}
	if c.Metadata["name"] == "" {
		p.addf("metadata.name is required")
	}
	return p.err()
}

// HubspotConfig submits a marketing form.
type HubspotConfig struct {
	PortalID string             `yaml:"portal_id" json:"portal_id"`
	FormGUID string             `yaml:"form_guid" json:"form_guid"`
	Fields   []param.Descriptor `yaml:"fields" json:"fields"`
	Response string             `yaml:"response" json:"response"`
}

func (*HubspotConfig) ActionType() ActionType { return TypeHubspot }

func (c *HubspotConfig) Validate() error {
	var p problems
	if c.PortalID == "" {
		p.addf("portal_id is required")
	}
	if c.FormGUID == "" {
		p.addf("form_guid is required")
	}
	if len(c.Fields) == 0 {
		p.addf("fields must not be empty")
	}
	validateParams(&p, "fields", c.Fields)
	return p.err()
}

// TextRecommendations configures the suggestions of the fallback.
type TextRecommendations struct {
	Count            int  `yaml:"count" json:"count"`
	UseIntentRanking bool `yaml:"use_intent_ranking" json:"use_intent_ranking"`
}

// TriggerRule is a static suggestion button.
type TriggerRule struct {
	Text         string `yaml:"text" json:"text"`
	Payload      string `yaml:"payload" json:"payload"`
	Message      string `yaml:"message" json:"message"`
	IsDynamicMsg bool   `yaml:"is_dynamic_msg" json:"is_dynamic_msg"`
}

// TwoStageFallbackConfig offers alternative intents when the bot is unsure.
type TwoStageFallbackConfig struct {
	TextRecommendations *TextRecommendations `yaml:"text_recommendations" json:"text_recommendations"`
	TriggerRules        []TriggerRule        `yaml:"trigger_rules" json:"trigger_rules"`
	FallbackMessage     string               `yaml:"fallback_message" json:"fallback_message"`
}

func (*TwoStageFallbackConfig) ActionType() ActionType { return TypeTwoStageFallback }

func (c *TwoStageFallbackConfig) Validate() error {
	var p problems
	if c.TextRecommendations == nil && len(c.TriggerRules) == 0 {
		p.addf("one of text_recommendations or trigger_rules is required")
	}
	if c.TextRecommendations != nil && c.TextRecommendations.Count < 0 {
		p.addf("text_recommendations.count must not be negative")
	}
	for i, r := range c.TriggerRules {
		if r.Text == "" {
			p.addf("trigger_rules[%d]: text is required", i)
		}
		if r.Payload == "" {
			p.addf("trigger_rules[%d]: payload is required", i)
		}
	}
	return p.err()
}
