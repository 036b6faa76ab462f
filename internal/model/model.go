// Package model defines action descriptors and the typed configuration of
// every action kind.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ActionType is the discriminant of an action configuration.
type ActionType string

const (
	TypeHTTP             ActionType = "http"
	TypeSlotSet          ActionType = "slot_set"
	TypeFormValidation   ActionType = "form_validation"
	TypeEmail            ActionType = "email"
	TypeGoogleSearch     ActionType = "google_search"
	TypeJira             ActionType = "jira"
	TypeZendesk          ActionType = "zendesk"
	TypePipedrive        ActionType = "pipedrive_leads"
	TypeHubspot          ActionType = "hubspot_forms"
	TypeTwoStageFallback ActionType = "two_stage_fallback"
)

// Types lists every supported action type.
var Types = []ActionType{
	TypeHTTP, TypeSlotSet, TypeFormValidation, TypeEmail, TypeGoogleSearch,
	TypeJira, TypeZendesk, TypePipedrive, TypeHubspot, TypeTwoStageFallback,
}

var aliases = map[string]ActionType{
	"http_action":               TypeHTTP,
	"slot_set_action":           TypeSlotSet,
	"form_validation_action":    TypeFormValidation,
	"email_action":              TypeEmail,
	"google_search_action":      TypeGoogleSearch,
	"jira_action":               TypeJira,
	"zendesk_action":            TypeZendesk,
	"pipedrive_leads_action":    TypePipedrive,
	"hubspot_forms_action":      TypeHubspot,
	"kairon_two_stage_fallback": TypeTwoStageFallback,
}

// ParseActionType accepts a type name or one of its stored aliases.
func ParseActionType(s string) (ActionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	if t, ok := aliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown action type %q", s)
}

// Descriptor identifies an action of a bot and names its kind.
type Descriptor struct {
	Name string     `yaml:"name" json:"name"`
	Type ActionType `yaml:"type" json:"type"`
	Bot  string     `yaml:"bot" json:"bot"`
}

// Config is the typed configuration of one action.
type Config interface {
	ActionType() ActionType
	// Validate reports every problem with the configuration at once.
	Validate() error
}

// Linter is implemented by configurations that can be loaded but carry
// settings worth a warning.
type Linter interface {
	Warnings() []string
}

// New returns an empty configuration of type t, ready to be decoded into.
func New(t ActionType) (Config, error) {
	switch t {
	case TypeHTTP:
		return &HTTPConfig{}, nil
	case TypeSlotSet:
		return &SlotSetConfig{}, nil
	case TypeFormValidation:
		return &FormValidationConfig{}, nil
	case TypeEmail:
		return &EmailConfig{}, nil
	case TypeGoogleSearch:
		return &GoogleSearchConfig{}, nil
	case TypeJira:
		return &JiraConfig{}, nil
	case TypeZendesk:
		return &ZendeskConfig{}, nil
	case TypePipedrive:
		return &PipedriveConfig{}, nil
	case TypeHubspot:
		return &HubspotConfig{}, nil
	case TypeTwoStageFallback:
		return &TwoStageFallbackConfig{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", t)
}

// Decode builds the configuration of type t with the given decoder, which
// fills the value it is passed (yaml.Node.Decode, json.Unmarshal and the like).
func Decode(t ActionType, decode func(v interface{}) error) (Config, error) {
	cfg, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", t, err)
	}
	return cfg, nil
}

// problems collects validation errors so that all of them are reported.
type problems []string

func (p *problems) addf(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return errors.New(strings.Join(p, "; "))
}
