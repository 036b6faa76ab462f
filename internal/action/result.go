package action

import (
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// ResponseSlot receives the reply of every action that computes one.
const ResponseSlot = "kairon_action_response"

// Fixed failure replies.
const (
	FailureText       = "I have failed to process your request"
	SearchFailureText = "I have failed to process your request."
	IssueFailureText  = "I have failed to create issue for you"
	LeadFailureText   = "I have failed to create lead for you"
)

// Reply records text as the bot response and returns a result setting the
// response slot. The text is also uttered when dispatch is true.
func Reply(ac *Context, text string, dispatch bool) *tracker.Result {
	ac.Record.BotResponse = text
	res := tracker.NewResult()
	res.SetSlot(ResponseSlot, text)
	if dispatch {
		res.Utter(text)
	}
	return res
}

// Fail marks the record failed with err and returns the failure reply.
func Fail(ac *Context, text string, err error, dispatch bool) *tracker.Result {
	ac.Record.Fail(err)
	return Reply(ac, text, dispatch)
}
