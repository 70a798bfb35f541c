package purifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/template"
)

// Attribute keys exposed by Attributes.
const (
	AttrAirQuality   = "air_quality"
	AttrFilterLife   = "filter_life"
	AttrFilterStatus = "filter_status"
	AttrHumidity     = "humidity"
	AttrTemperature  = "temperature"
)

var (
	ErrActionNotConfigured = errors.New("action not configured")
	ErrInvalidPresetMode   = errors.New("preset mode not in preset_modes")
	ErrInvalidPercentage   = errors.New("percentage must be between 0 and 100")
)

// StateSource yields the current entity states templates are rendered against.
type StateSource interface {
	List(ctx context.Context) ([]models.EntityState, error)
}

// Dispatcher performs a hub service call. With blocking=true it returns only
// after the hub acknowledged the call.
type Dispatcher interface {
	Call(ctx context.Context, ref ServiceRef, data map[string]any, blocking bool) error
}

// Snapshot is the set of rendered values as of one refresh. A published
// snapshot is never modified.
type Snapshot struct {
	State         string
	Percentage    int
	HasPercentage bool
	PresetMode    string
	HasPresetMode bool
	Attributes    map[string]string
	Icon          string
	EntityPicture string
	Available     bool
	RenderedAt    time.Time
}

type namedTemplate struct {
	key string
	tpl *template.Template
}

// compiledAction is an ActionConfig with its string payload values compiled.
type compiledAction struct {
	cfg  *ActionConfig
	data map[string]*template.Template
}

// Adapter is a template air purifier: every property is rendered from a
// template, and control requests are forwarded to configured service calls.
type Adapter struct {
	cfg      Config
	entityID string

	state        *template.Template
	fanSpeed     *template.Template
	presetMode   *template.Template
	icon         *template.Template
	picture      *template.Template
	availability *template.Template
	attributes   []namedTemplate

	setPercentage *compiledAction
	setPresetMode *compiledAction

	states     StateSource
	dispatcher Dispatcher
	log        *logger.Logger

	mu   sync.Mutex // serializes Refresh
	snap atomic.Pointer[Snapshot]
}

// NewAdapter compiles every configured template. entityID is the id the
// purifier is presented under.
func NewAdapter(cfg Config, entityID string, engine *template.Engine, states StateSource, dispatcher Dispatcher, log *logger.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Adapter{
		cfg:        cfg,
		entityID:   entityID,
		states:     states,
		dispatcher: dispatcher,
		log:        log,
	}

	parse := func(field, src string) (*template.Template, error) {
		if strings.TrimSpace(src) == "" {
			return nil, nil
		}
		tpl, err := engine.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return tpl, nil
	}

	var err error
	for _, f := range []struct {
		field string
		src   string
		dst   **template.Template
	}{
		{"state_template", cfg.StateTemplate, &a.state},
		{"fan_speed_template", cfg.FanSpeedTemplate, &a.fanSpeed},
		{"preset_mode_template", cfg.PresetModeTemplate, &a.presetMode},
		{"icon_template", cfg.IconTemplate, &a.icon},
		{"entity_picture_template", cfg.EntityPictureTemplate, &a.picture},
		{"availability_template", cfg.AvailabilityTemplate, &a.availability},
	} {
		if *f.dst, err = parse(f.field, f.src); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct{ key, src string }{
		{AttrAirQuality, cfg.AirQualityTemplate},
		{AttrFilterLife, cfg.FilterLifeTemplate},
		{AttrFilterStatus, cfg.FilterStatusTemplate},
		{AttrHumidity, cfg.HumidityTemplate},
		{AttrTemperature, cfg.TemperatureTemplate},
	} {
		tpl, err := parse(f.key+"_template", f.src)
		if err != nil {
			return nil, err
		}
		if tpl != nil {
			a.attributes = append(a.attributes, namedTemplate{key: f.key, tpl: tpl})
		}
	}

	if a.setPercentage, err = compileAction(engine, "set_percentage", cfg.SetPercentage); err != nil {
		return nil, err
	}
	if a.setPresetMode, err = compileAction(engine, "set_preset_mode", cfg.SetPresetMode); err != nil {
		return nil, err
	}

	a.snap.Store(&Snapshot{Available: true, Attributes: map[string]string{}})
	return a, nil
}

func compileAction(engine *template.Engine, field string, act *ActionConfig) (*compiledAction, error) {
	if act == nil {
		return nil, nil
	}
	out := &compiledAction{cfg: act, data: map[string]*template.Template{}}
	for k, v := range act.Data {
		s, ok := v.(string)
		if !ok || !strings.Contains(s, "{{") && !strings.Contains(s, "{%") {
			continue
		}
		tpl, err := engine.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s.data.%s: %w", field, k, err)
		}
		out.data[k] = tpl
	}
	return out, nil
}

func (a *Adapter) Name() string     { return a.cfg.Name }
func (a *Adapter) UniqueID() string { return a.cfg.UniqueID }
func (a *Adapter) EntityID() string { return a.entityID }
func (a *Adapter) Config() Config   { return a.cfg }

// Refresh renders every configured template against one consistent read of
// the state source and publishes the result atomically. On failure the
// previous snapshot stays in place and the error is returned.
func (a *Adapter) Refresh(ctx context.Context) error {
	return a.refresh(ctx, nil)
}

// refresh runs after, if set, once the new snapshot is stored and before the
// next refresh may start.
func (a *Adapter) refresh(ctx context.Context, after func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	list, err := a.states.List(ctx)
	if err != nil {
		a.log.Warnw("purifier_refresh_failed", "entity_id", a.entityID, "stage", "load_states", "err", err)
		return fmt.Errorf("refresh %s: load states: %w", a.entityID, err)
	}

	snap, err := a.render(template.NewStates(list))
	if err != nil {
		a.log.Warnw("purifier_refresh_failed", "entity_id", a.entityID, "stage", "render", "err", err)
		return fmt.Errorf("refresh %s: %w", a.entityID, err)
	}
	a.snap.Store(snap)
	if after != nil {
		return after()
	}
	return nil
}

func (a *Adapter) render(states template.States) (*Snapshot, error) {
	render := func(field string, tpl *template.Template) (string, error) {
		out, err := tpl.Render(states, nil)
		if err != nil {
			return "", fmt.Errorf("%s: %w", field, err)
		}
		return out, nil
	}

	snap := &Snapshot{
		Available:  true,
		Attributes: make(map[string]string, len(a.attributes)),
		RenderedAt: time.Now().UTC(),
	}

	var err error
	if snap.State, err = render("state", a.state); err != nil {
		return nil, err
	}
	if a.fanSpeed != nil {
		raw, err := render("fan_speed", a.fanSpeed)
		if err != nil {
			return nil, err
		}
		snap.Percentage, snap.HasPercentage = parsePercentage(raw)
	}
	if a.presetMode != nil {
		if snap.PresetMode, err = render("preset_mode", a.presetMode); err != nil {
			return nil, err
		}
		snap.HasPresetMode = true
	}
	if a.icon != nil {
		if snap.Icon, err = render("icon", a.icon); err != nil {
			return nil, err
		}
	}
	if a.picture != nil {
		if snap.EntityPicture, err = render("entity_picture", a.picture); err != nil {
			return nil, err
		}
	}
	if a.availability != nil {
		raw, err := render("availability", a.availability)
		if err != nil {
			return nil, err
		}
		snap.Available = strings.EqualFold(raw, "true")
	}
	for _, attr := range a.attributes {
		v, err := render(attr.key, attr.tpl)
		if err != nil {
			return nil, err
		}
		snap.Attributes[attr.key] = v
	}
	return snap, nil
}

// parsePercentage reads a rendered fan speed. Anything that is not a finite
// number is unknown; numbers are truncated and clamped into [0, 100].
func parsePercentage(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	p := int(f)
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	return p, true
}

// Snapshot returns the last published snapshot.
func (a *Adapter) Snapshot() *Snapshot { return a.snap.Load() }

// IsOn reports whether the rendered state is exactly "on".
func (a *Adapter) IsOn() bool { return a.Snapshot().State == models.StateOn }

// Percentage returns the fan speed; ok is false when it is unknown.
func (a *Adapter) Percentage() (int, bool) {
	s := a.Snapshot()
	return s.Percentage, s.HasPercentage
}

// PresetMode returns the rendered preset. It is not checked against PresetModes.
func (a *Adapter) PresetMode() (string, bool) {
	s := a.Snapshot()
	return s.PresetMode, s.HasPresetMode
}

// PresetModes returns a copy of the allowed preset modes.
func (a *Adapter) PresetModes() []string {
	return append([]string(nil), a.cfg.PresetModes...)
}

// Attributes returns the rendered sensor attributes. Keys whose template is
// not configured are absent.
func (a *Adapter) Attributes() map[string]string {
	src := a.Snapshot().Attributes
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (a *Adapter) Icon() string          { return a.Snapshot().Icon }
func (a *Adapter) EntityPicture() string { return a.Snapshot().EntityPicture }

// Available is true unless an availability template renders something other than "true".
func (a *Adapter) Available() bool { return a.Snapshot().Available }

// Activate turns the purifier on via turn_on, or set_state when turn_on is absent.
func (a *Adapter) Activate(ctx context.Context) error {
	act := a.cfg.TurnOn
	if act == nil {
		act = a.cfg.SetState
	}
	return a.call(ctx, "turn_on", act, nil)
}

// Deactivate turns the purifier off via turn_off, or set_state when turn_off is absent.
func (a *Adapter) Deactivate(ctx context.Context) error {
	act := a.cfg.TurnOff
	if act == nil {
		act = a.cfg.SetState
	}
	return a.call(ctx, "turn_off", act, nil)
}

// SetPercentage forwards set_percentage with "percentage" available to payload templates.
func (a *Adapter) SetPercentage(ctx context.Context, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPercentage, percentage)
	}
	return a.callTemplated(ctx, "set_percentage", a.setPercentage, map[string]any{"percentage": percentage})
}

// SetPresetMode forwards set_preset_mode when mode is one of PresetModes.
func (a *Adapter) SetPresetMode(ctx context.Context, mode string) error {
	allowed := false
	for _, m := range a.cfg.PresetModes {
		if m == mode {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q", ErrInvalidPresetMode, mode)
	}
	return a.callTemplated(ctx, "set_preset_mode", a.setPresetMode, map[string]any{"preset_mode": mode})
}

func (a *Adapter) callTemplated(ctx context.Context, op string, act *compiledAction, vars map[string]any) error {
	if act == nil {
		return fmt.Errorf("%s %s: %w", a.entityID, op, ErrActionNotConfigured)
	}
	data := act.cfg.Data
	if len(act.data) > 0 {
		list, err := a.states.List(ctx)
		if err != nil {
			return fmt.Errorf("%s %s: load states: %w", a.entityID, op, err)
		}
		states := template.NewStates(list)
		data = make(map[string]any, len(act.cfg.Data))
		for k, v := range act.cfg.Data {
			tpl, ok := act.data[k]
			if !ok {
				data[k] = v
				continue
			}
			out, err := tpl.Render(states, vars)
			if err != nil {
				return fmt.Errorf("%s %s: data.%s: %w", a.entityID, op, k, err)
			}
			data[k] = out
		}
	}
	return a.call(ctx, op, act.cfg, data)
}

func (a *Adapter) call(ctx context.Context, op string, act *ActionConfig, data map[string]any) error {
	if act == nil {
		return fmt.Errorf("%s %s: %w", a.entityID, op, ErrActionNotConfigured)
	}
	if data == nil {
		data = act.Data
	}
	if err := a.dispatcher.Call(ctx, act.Service, data, act.IsBlocking()); err != nil {
		a.log.Errorw("purifier_action_failed", "entity_id", a.entityID, "op", op, "service", act.Service.String(), "err", err)
		return fmt.Errorf("%s %s via %s: %w", a.entityID, op, act.Service, err)
	}
	a.log.Debugw("purifier_action_dispatched", "entity_id", a.entityID, "op", op, "service", act.Service.String())
	return nil
}

// State returns the outward presentation of the purifier.
func (a *Adapter) State() models.PurifierState {
	s := a.Snapshot()
	out := models.PurifierState{
		Name:          a.cfg.Name,
		UniqueID:      a.cfg.UniqueID,
		EntityID:      a.entityID,
		IsOn:          s.State == models.StateOn,
		State:         s.State,
		PresetModes:   a.PresetModes(),
		Attributes:    a.Attributes(),
		Icon:          s.Icon,
		EntityPicture: s.EntityPicture,
		Available:     s.Available,
		RenderedAt:    s.RenderedAt,
	}
	if out.PresetModes == nil {
		out.PresetModes = []string{}
	}
	if s.HasPercentage {
		p := s.Percentage
		out.Percentage = &p
	}
	if s.HasPresetMode {
		m := s.PresetMode
		out.PresetMode = &m
	}
	return out
}

// PublishedState is the purifier as an entity of the hub's state registry.
func (a *Adapter) PublishedState() models.EntityState {
	st := a.State()
	state := models.StateOff
	switch {
	case !st.Available:
		state = models.StateUnavailable
	case st.IsOn:
		state = models.StateOn
	}

	attrs := map[string]any{
		"friendly_name": st.Name,
		"preset_modes":  st.PresetModes,
	}
	if st.Percentage != nil {
		attrs["percentage"] = *st.Percentage
	}
	if st.PresetMode != nil {
		attrs["preset_mode"] = *st.PresetMode
	}
	if st.Icon != "" {
		attrs["icon"] = st.Icon
	}
	if st.EntityPicture != "" {
		attrs["entity_picture"] = st.EntityPicture
	}
	for k, v := range st.Attributes {
		attrs[k] = v
	}
	return models.EntityState{EntityID: a.entityID, State: state, Attributes: attrs}
}
