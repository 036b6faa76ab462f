package tracker

import "strings"

const (
	// BotSlot carries the id of the bot that owns the conversation.
	BotSlot = "bot"
	// RequestedSlot is set by the orchestrator while a form is filling a slot.
	RequestedSlot = "requested_slot"
	// UserMessageEntity overrides the latest message text when present.
	UserMessageEntity = "kairon_user_msg"
)

// Request is the body the orchestrator posts to the webhook once per turn.
type Request struct {
	NextAction string                 `json:"next_action"`
	Tracker    Tracker                `json:"tracker"`
	Domain     map[string]interface{} `json:"domain"`
	Version    string                 `json:"version"`
}

// Tracker is the orchestrator's snapshot of one conversation.
type Tracker struct {
	SenderID       string                   `json:"sender_id"`
	ConversationID string                   `json:"conversation_id"`
	Slots          map[string]interface{}   `json:"slots"`
	LatestMessage  Message                  `json:"latest_message"`
	Events         []map[string]interface{} `json:"events"`
	ActiveLoop     map[string]interface{}   `json:"active_loop"`
}

// Message is the latest parsed user message.
type Message struct {
	Text          string   `json:"text"`
	Intent        Intent   `json:"intent"`
	IntentRanking []Intent `json:"intent_ranking"`
	Entities      []Entity `json:"entities"`
}

// Intent is one candidate of the NLU ranking.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Entity is an extracted entity of the latest message.
type Entity struct {
	Entity string      `json:"entity"`
	Value  interface{} `json:"value"`
}

// Slot returns the current value of a slot. The second result is false when
// the slot is not part of the snapshot at all.
func (t *Tracker) Slot(name string) (interface{}, bool) {
	if t.Slots == nil {
		return nil, false
	}
	v, ok := t.Slots[name]
	return v, ok
}

// SlotString returns a slot value when it is a non-empty string.
func (t *Tracker) SlotString(name string) string {
	v, _ := t.Slot(name)
	s, _ := v.(string)
	return s
}

// Bot returns the owning bot id carried in the bot slot.
func (t *Tracker) Bot() string { return t.SlotString(BotSlot) }

// RequestedSlot returns the slot a form is currently asking for.
func (t *Tracker) RequestedSlot() string { return t.SlotString(RequestedSlot) }

// TopIntent returns the name of the highest ranked intent of the latest message.
func (t *Tracker) TopIntent() string {
	if len(t.LatestMessage.IntentRanking) > 0 {
		return t.LatestMessage.IntentRanking[0].Name
	}
	return t.LatestMessage.Intent.Name
}

// UserMessage returns the text the user meant to send. A kairon_user_msg
// entity wins over the raw text so that button payloads can carry a message.
func (t *Tracker) UserMessage() string {
	for _, e := range t.LatestMessage.Entities {
		if e.Entity != UserMessageEntity {
			continue
		}
		if s, ok := e.Value.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return t.LatestMessage.Text
}

// Turn is a single user or bot utterance taken from the event history.
type Turn struct {
	Sender  string
	Text    string
	Buttons []Button
}

// Turns extracts the user and bot utterances of the event history, in order.
func (t *Tracker) Turns() []Turn {
	var turns []Turn
	for _, ev := range t.Events {
		kind, _ := ev["event"].(string)
		if kind != "user" && kind != "bot" {
			continue
		}
		turn := Turn{Sender: kind}
		turn.Text, _ = ev["text"].(string)
		if data, ok := ev["data"].(map[string]interface{}); ok {
			if buttons, ok := data["buttons"].([]interface{}); ok {
				for _, b := range buttons {
					bm, ok := b.(map[string]interface{})
					if !ok {
						continue
					}
					title, _ := bm["title"].(string)
					if title == "" {
						title, _ = bm["text"].(string)
					}
					payload, _ := bm["payload"].(string)
					turn.Buttons = append(turn.Buttons, Button{Text: title, Payload: payload})
				}
			}
		}
		if turn.Text == "" && len(turn.Buttons) == 0 {
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}
