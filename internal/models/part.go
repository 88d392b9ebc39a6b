package models

// Part type values.
const (
	PartTypeText      = "text"
	PartTypeReasoning = "reasoning"
	PartTypeToolCall  = "tool-call"
	PartTypeFile      = "file"
	PartTypeStepStart = "step-start"
)

// Part is one ordered piece of a message: text, reasoning, a tool
// call, and so on. Fields specific to rarer types live in Extra rather
// than widening this struct for every variant.
type Part struct {
	ID        string         `json:"id"`
	MessageID string         `json:"messageID"`
	SessionID string         `json:"sessionID"`
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	CallID    string         `json:"callID,omitempty"`
	State     string         `json:"state,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}
