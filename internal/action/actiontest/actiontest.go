// Package actiontest provides fixtures for testing action executors.
package actiontest

import (
	"context"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/store"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Bot is the bot id used by fixtures.
const Bot = "5f50fd0a56b698ca10d35d2e"

// Store is an in-memory store.Store.
type Store struct {
	Actions  map[string]model.Descriptor
	Configs  map[string]model.Config
	Secrets  map[string]string
	Slots    map[string]bool
	Intents  map[string][]string
	Err      error
	Searched []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		Actions: make(map[string]model.Descriptor),
		Configs: make(map[string]model.Config),
		Secrets: make(map[string]string),
		Slots:   make(map[string]bool),
		Intents: make(map[string][]string),
	}
}

// Add registers an action with its configuration under Bot.
func (s *Store) Add(name string, cfg model.Config) model.Descriptor {
	d := model.Descriptor{Name: name, Type: cfg.ActionType(), Bot: Bot}
	s.Actions[name] = d
	s.Configs[name] = cfg
	return d
}

func (s *Store) Action(_ context.Context, bot, name string) (model.Descriptor, error) {
	if s.Err != nil {
		return model.Descriptor{}, s.Err
	}
	d, ok := s.Actions[name]
	if !ok || d.Bot != bot {
		return model.Descriptor{}, store.ErrNotFound
	}
	return d, nil
}

func (s *Store) Config(_ context.Context, d model.Descriptor) (model.Config, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	cfg, ok := s.Configs[d.Name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cfg, nil
}

func (s *Store) Secret(_ context.Context, _, key string) (string, bool, error) {
	if s.Err != nil {
		return "", false, s.Err
	}
	v, ok := s.Secrets[key]
	return v, ok, nil
}

func (s *Store) SlotDeclared(_ context.Context, _, slot string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	return s.Slots[slot], nil
}

func (s *Store) Examples(_ context.Context, _, intent string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Intents[intent], nil
}

// SearchExamples returns stored examples containing a word of text. Map order
// is random, so tests expecting an order keep their examples under one intent.
func (s *Store) SearchExamples(_ context.Context, _, text string, limit int) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Searched = append(s.Searched, text)
	var out []string
	for _, examples := range s.Intents {
		for _, ex := range examples {
			if len(out) == limit {
				return out, nil
			}
			for _, w := range strings.Fields(strings.ToLower(text)) {
				if strings.Contains(strings.ToLower(ex), w) {
					out = append(out, ex)
					break
				}
			}
		}
	}
	return out, nil
}

// Request builds a webhook request for action name with the given slots. The
// bot slot is always set to Bot.
func Request(name string, slots map[string]interface{}) *tracker.Request {
	all := map[string]interface{}{tracker.BotSlot: Bot}
	for k, v := range slots {
		all[k] = v
	}
	return &tracker.Request{
		NextAction: name,
		Tracker: tracker.Tracker{
			SenderID:       "default",
			ConversationID: "default",
			Slots:          all,
			LatestMessage: tracker.Message{
				Text:          "get intents",
				IntentRanking: []tracker.Intent{{Name: "test_run", Confidence: 0.9}},
			},
			Events: []map[string]interface{}{
				{"event": "user", "text": "hi"},
				{"event": "bot", "text": "hello, how can I help?"},
			},
		},
	}
}

// Context builds an invocation context for the action registered under name
// in s. script may be nil.
func Context(req *tracker.Request, s *Store, name string, script expression.ScriptEvaluator) *action.Context {
	d := s.Actions[name]
	t := &req.Tracker
	rec := audit.NewRecord(string(d.Type), d.Name, d.Bot, t.SenderID, t.TopIntent())
	return &action.Context{
		Request: req,
		Action:  d,
		Config:  s.Configs[name],
		Record:  rec,
		Params:  param.NewResolver(t, d.Bot, s),
		Eval:    expression.NewEvaluator(script, rec),
		Store:   s,
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
