package models

import "time"

// Service call statuses.
const (
	CallSucceeded = "SUCCEEDED"
	CallFailed    = "FAILED"
)

// ServiceCall is a single entry of the dispatched service-call log.
type ServiceCall struct {
	CallID   string         `json:"call_id"`
	CalledAt time.Time      `json:"called_at"`
	Domain   string         `json:"domain"`
	Action   string         `json:"action"`
	Data     map[string]any `json:"data,omitempty"`
	Blocking bool           `json:"blocking"`
	Status   string         `json:"status"`          // SUCCEEDED | FAILED
	Error    string         `json:"error,omitempty"` // set when Status is FAILED
}
