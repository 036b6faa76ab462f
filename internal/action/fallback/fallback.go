// Package fallback implements the two_stage_fallback action, which offers the
// user a choice of likely intents when the bot did not understand them.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

const (
	// DefaultMessage is shown above the suggestions when none is configured.
	DefaultMessage = "I could not understand you! Did you mean any of the suggestions below? Or else please rephrase your question."
	// DefaultTemplate is uttered when there is nothing to suggest.
	DefaultTemplate = "utter_default"
)

// Executor runs two_stage_fallback actions.
type Executor struct{}

// New returns an Executor.
func New() *Executor { return &Executor{} }

func (*Executor) Type() model.ActionType { return model.TypeTwoStageFallback }

// Execute never sets slots. It answers with suggestion buttons followed by
// the configured trigger rules, or with the default template when there is
// nothing to offer.
func (*Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.TwoStageFallbackConfig](ac)
	if err != nil {
		return nil, err
	}
	t := ac.Tracker()
	var buttons []tracker.Button

	if rec := cfg.TextRecommendations; rec != nil && rec.Count > 0 {
		var suggestions []tracker.Button
		if rec.UseIntentRanking {
			suggestions, err = byIntentRanking(ctx, ac, rec.Count)
		} else {
			suggestions, err = bySimilarExamples(ctx, ac, rec.Count)
		}
		if err != nil {
			// Trigger rules still apply when suggestions fail.
			ac.Record.Fail(err)
		}
		buttons = append(buttons, suggestions...)
	}
	for _, rule := range cfg.TriggerRules {
		buttons = append(buttons, triggerButton(rule, t.LatestMessage.Text))
	}

	res := tracker.NewResult()
	if len(buttons) == 0 {
		ac.Record.BotResponse = DefaultTemplate
		res.Respond(tracker.TemplateResponse(DefaultTemplate))
		return res, nil
	}
	text := cfg.FallbackMessage
	if text == "" {
		text = DefaultMessage
	}
	ac.Record.BotResponse = text
	res.Respond(tracker.ButtonResponse(text, buttons))
	return res, nil
}

// byIntentRanking suggests the intents ranked right after the top one, each
// represented by its first training example. Intents without examples are
// skipped.
func byIntentRanking(ctx context.Context, ac *action.Context, count int) ([]tracker.Button, error) {
	ranking := ac.Tracker().LatestMessage.IntentRanking
	if len(ranking) < 2 {
		return nil, nil
	}
	end := count + 1
	if end > len(ranking) {
		end = len(ranking)
	}
	var out []tracker.Button
	for _, intent := range ranking[1:end] {
		examples, err := ac.Store.Examples(ctx, ac.Bot(), intent.Name)
		if err != nil {
			return out, fmt.Errorf("examples of %q: %w", intent.Name, err)
		}
		if len(examples) == 0 {
			continue
		}
		out = append(out, tracker.Button{Text: examples[0], Payload: "/" + intent.Name})
	}
	return out, nil
}

// bySimilarExamples suggests training examples close to the user's text.
func bySimilarExamples(ctx context.Context, ac *action.Context, count int) ([]tracker.Button, error) {
	examples, err := ac.Store.SearchExamples(ctx, ac.Bot(), ac.Tracker().LatestMessage.Text, count)
	if err != nil {
		return nil, fmt.Errorf("search examples: %w", err)
	}
	out := make([]tracker.Button, len(examples))
	for i, ex := range examples {
		out[i] = tracker.Button{Text: ex, Payload: ex}
	}
	return out, nil
}

// triggerButton maps a rule to its intent payload. A dynamic rule carries the
// user's latest text, a static one its configured message.
func triggerButton(rule model.TriggerRule, latest string) tracker.Button {
	payload := "/" + rule.Payload
	msg := rule.Message
	if rule.IsDynamicMsg {
		msg = latest
	}
	if rule.IsDynamicMsg || rule.Message != "" {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(msg)
		quoted := strings.TrimSuffix(buf.String(), "\n")
		payload += fmt.Sprintf(`{"%s": %s}`, tracker.UserMessageEntity, quoted)
	}
	return tracker.Button{Text: rule.Text, Payload: payload}
}
