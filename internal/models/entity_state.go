package models

import (
	"strings"
	"time"
)

// Common state values shared by hub entities.
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// EntityState is the current state of one hub entity (sensor, switch, helper...).
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Domain returns the part of the entity id before the first dot.
func (s EntityState) Domain() string {
	domain, _, found := strings.Cut(s.EntityID, ".")
	if !found {
		return ""
	}
	return domain
}
