package tracker

// SlotEventKind is the only event kind the server emits.
const SlotEventKind = "slot"

// SlotEvent sets a slot on the orchestrator's tracker.
type SlotEvent struct {
	Event     string      `json:"event"`
	Timestamp *float64    `json:"timestamp"`
	Name      string      `json:"name"`
	Value     interface{} `json:"value"`
}

// SetSlot builds a slot event.
func SetSlot(name string, value interface{}) SlotEvent {
	return SlotEvent{Event: SlotEventKind, Name: name, Value: value}
}

// Button is a quick reply offered with a response.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Response is a chat message dispatched to the end user.
type Response struct {
	Text       *string                  `json:"text"`
	Buttons    []Button                 `json:"buttons"`
	Elements   []map[string]interface{} `json:"elements"`
	Custom     map[string]interface{}   `json:"custom"`
	Template   *string                  `json:"template"`
	Response   *string                  `json:"response"`
	Image      *string                  `json:"image"`
	Attachment interface{}              `json:"attachment"`
}

// TextResponse builds a plain text message.
func TextResponse(text string) Response {
	r := emptyResponse()
	r.Text = &text
	return r
}

// ButtonResponse builds a text message carrying buttons.
func ButtonResponse(text string, buttons []Button) Response {
	r := TextResponse(text)
	if buttons != nil {
		r.Buttons = buttons
	}
	return r
}

// TemplateResponse asks the orchestrator to utter one of its own templates.
func TemplateResponse(name string) Response {
	r := emptyResponse()
	r.Template = &name
	r.Response = &name
	return r
}

func emptyResponse() Response {
	return Response{
		Buttons:  []Button{},
		Elements: []map[string]interface{}{},
		Custom:   map[string]interface{}{},
	}
}

// Result is the webhook reply: slot events and chat responses, in the order
// the action produced them.
type Result struct {
	Events    []SlotEvent `json:"events"`
	Responses []Response  `json:"responses"`
}

// NewResult returns an empty result that encodes as {"events":[],"responses":[]}.
func NewResult() *Result {
	return &Result{Events: []SlotEvent{}, Responses: []Response{}}
}

// SetSlot appends a slot event.
func (r *Result) SetSlot(name string, value interface{}) {
	r.Events = append(r.Events, SetSlot(name, value))
}

// Utter appends a text response.
func (r *Result) Utter(text string) {
	r.Responses = append(r.Responses, TextResponse(text))
}

// Respond appends a prepared response.
func (r *Result) Respond(resp Response) {
	r.Responses = append(r.Responses, resp)
}
