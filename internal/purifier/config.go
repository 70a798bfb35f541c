package purifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlatformName is the platform key purifier entries carry in the platform file.
const PlatformName = "template_air_purifier"

// EntityDomain prefixes generated entity ids.
const EntityDomain = "template_air_purifier"

var (
	ErrMissingName          = errors.New("name is required")
	ErrMissingStateTemplate = errors.New("state_template is required")
	ErrMissingSetState      = errors.New("set_state is required unless both turn_on and turn_off are configured")
	ErrDuplicatePresetMode  = errors.New("duplicate preset mode")
	ErrEmptyPresetMode      = errors.New("empty preset mode")
)

// ActionConfig describes a single service call: which service, the payload and
// whether to wait for the hub to acknowledge it.
type ActionConfig struct {
	Service  ServiceRef     `yaml:"service"`
	Data     map[string]any `yaml:"data,omitempty"`
	Blocking *bool          `yaml:"blocking,omitempty"`
}

// IsBlocking reports the blocking flag; calls block unless explicitly disabled.
func (a *ActionConfig) IsBlocking() bool {
	return a.Blocking == nil || *a.Blocking
}

func (a *ActionConfig) validate(field string) error {
	if a == nil {
		return nil
	}
	if a.Service.IsZero() {
		return fmt.Errorf("%s: %w", field, ErrInvalidServiceRef)
	}
	return nil
}

// Config is one purifier entry of the platform file. It is never mutated after load.
type Config struct {
	Platform string `yaml:"platform"`
	Name     string `yaml:"name"`
	UniqueID string `yaml:"unique_id,omitempty"`

	StateTemplate         string `yaml:"state_template"`
	AirQualityTemplate    string `yaml:"air_quality_template,omitempty"`
	FanSpeedTemplate      string `yaml:"fan_speed_template,omitempty"`
	PresetModeTemplate    string `yaml:"preset_mode_template,omitempty"`
	FilterLifeTemplate    string `yaml:"filter_life_template,omitempty"`
	FilterStatusTemplate  string `yaml:"filter_status_template,omitempty"`
	HumidityTemplate      string `yaml:"humidity_template,omitempty"`
	TemperatureTemplate   string `yaml:"temperature_template,omitempty"`
	IconTemplate          string `yaml:"icon_template,omitempty"`
	EntityPictureTemplate string `yaml:"entity_picture_template,omitempty"`
	AvailabilityTemplate  string `yaml:"availability_template,omitempty"`

	PresetModes []string `yaml:"preset_modes,omitempty"`

	SetState      *ActionConfig `yaml:"set_state,omitempty"`
	TurnOn        *ActionConfig `yaml:"turn_on,omitempty"`
	TurnOff       *ActionConfig `yaml:"turn_off,omitempty"`
	SetPercentage *ActionConfig `yaml:"set_percentage,omitempty"`
	SetPresetMode *ActionConfig `yaml:"set_preset_mode,omitempty"`
}

// Validate checks required fields and action descriptors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(c.StateTemplate) == "" {
		return ErrMissingStateTemplate
	}
	if c.SetState == nil && (c.TurnOn == nil || c.TurnOff == nil) {
		return ErrMissingSetState
	}
	for _, a := range []struct {
		field string
		act   *ActionConfig
	}{
		{"set_state", c.SetState},
		{"turn_on", c.TurnOn},
		{"turn_off", c.TurnOff},
		{"set_percentage", c.SetPercentage},
		{"set_preset_mode", c.SetPresetMode},
	} {
		if err := a.act.validate(a.field); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(c.PresetModes))
	for _, m := range c.PresetModes {
		if strings.TrimSpace(m) == "" {
			return ErrEmptyPresetMode
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePresetMode, m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// UsesToggle reports whether on and off both fall back to set_state.
func (c *Config) UsesToggle() bool {
	return c.TurnOn == nil && c.TurnOff == nil
}

// platformFile is the top-level layout of the platform YAML.
type platformFile struct {
	AirPurifier []Config `yaml:"air_purifier"`
}

// ParsePlatform decodes and validates purifier entries. Entries belonging to
// another platform are skipped.
func ParsePlatform(data []byte) ([]Config, error) {
	var f platformFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode platform file: %w", err)
	}
	out := make([]Config, 0, len(f.AirPurifier))
	for i, c := range f.AirPurifier {
		if c.Platform != "" && c.Platform != PlatformName {
			continue
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("air_purifier[%d] (%s): %w", i, c.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadPlatform reads and parses the platform file at path.
func LoadPlatform(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read platform file %q: %w", path, err)
	}
	return ParsePlatform(data)
}
