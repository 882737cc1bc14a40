package models

import "time"

// Event is an audit/analytics record emitted on every transition.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	FlowToken  string            `json:"flow_token"`
	Screen     string            `json:"screen,omitempty"`
	Action     string            `json:"action,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
