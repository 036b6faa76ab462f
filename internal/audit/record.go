// Package audit builds one log record per executed action and writes it to
// the configured sinks.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an action as recorded in the audit log.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Record describes one action invocation. It is filled while the action runs
// and handed to a sink once, after the action returns.
type Record struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Intent        string      `json:"intent"`
	Action        string      `json:"action"`
	Sender        string      `json:"sender"`
	Bot           string      `json:"bot"`
	Headers       interface{} `json:"headers,omitempty"`
	URL           string      `json:"url,omitempty"`
	RequestMethod string      `json:"request_method,omitempty"`
	RequestParams interface{} `json:"request_params,omitempty"`
	APIResponse   string      `json:"api_response,omitempty"`
	BotResponse   string      `json:"bot_response,omitempty"`
	Messages      []string    `json:"messages"`
	Exception     string      `json:"exception,omitempty"`
	Status        Status      `json:"status"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewRecord starts a successful record for an action.
func NewRecord(actionType, action, bot, sender, intent string) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Type:      actionType,
		Intent:    intent,
		Action:    action,
		Sender:    sender,
		Bot:       bot,
		Messages:  []string{},
		Status:    StatusSuccess,
		Timestamp: time.Now().UTC(),
	}
}

// Trace appends a human-readable evaluation message.
func (r *Record) Trace(msg string) {
	r.Messages = append(r.Messages, msg)
}

// Fail marks the record failed with the error that caused it.
func (r *Record) Fail(err error) {
	r.Status = StatusFailure
	if err != nil {
		r.Exception = err.Error()
	}
}
