package models

import "time"

// PurifierState is the outward presentation of a template air purifier,
// the shape a dashboard or API client consumes.
type PurifierState struct {
	Name          string            `json:"name"`
	UniqueID      string            `json:"unique_id,omitempty"`
	EntityID      string            `json:"entity_id"`
	IsOn          bool              `json:"is_on"`
	State         string            `json:"state"`                // raw rendered state
	Percentage    *int              `json:"percentage"`           // null when unknown
	PresetMode    *string           `json:"preset_mode"`          // null when not configured
	PresetModes   []string          `json:"preset_modes"`
	Attributes    map[string]string `json:"attributes"`
	Icon          string            `json:"icon,omitempty"`
	EntityPicture string            `json:"entity_picture,omitempty"`
	Available     bool              `json:"available"`
	RenderedAt    time.Time         `json:"rendered_at"`
}
