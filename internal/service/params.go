package service

import "time"

// StateParams is a state write coming from the API.
type StateParams struct {
	EntityID   string
	State      string
	Attributes map[string]any // nil keeps the current attributes
}

// LogFilter supports service-call history filtering by time range and domain.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Domain string    // "", "input_boolean", "homeassistant", ...
}
