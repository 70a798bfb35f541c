// Package template renders hub templates such as "{{ states('sensor.pm25') }}"
// against a snapshot of entity states. Templates use the Jinja-like pongo2
// syntax and expose states, is_state, state_attr and has_value.
package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"template_purifier/internal/models"

	"github.com/flosch/pongo2/v6"
)

// UndefinedPolicy decides what states() does for an entity missing from the snapshot.
type UndefinedPolicy string

const (
	// UndefinedUnknown renders missing entities as "unknown".
	UndefinedUnknown UndefinedPolicy = "unknown"
	// UndefinedError fails the render with ErrUndefinedEntity.
	UndefinedError UndefinedPolicy = "error"
)

var (
	ErrUndefinedEntity = errors.New("template references undefined entity")
	ErrInvalidPolicy   = errors.New("invalid undefined policy: must be unknown or error")
	ErrSyntax          = errors.New("template syntax error")
)

// States is a read-only view of the entity registry at render time.
type States map[string]models.EntityState

// NewStates indexes a list of entity states by id.
func NewStates(list []models.EntityState) States {
	out := make(States, len(list))
	for _, st := range list {
		out[st.EntityID] = st
	}
	return out
}

// Engine compiles templates. It holds no per-render state and is safe for concurrent use.
type Engine struct {
	policy UndefinedPolicy
}

// NewEngine returns an engine using the given policy; empty means UndefinedUnknown.
func NewEngine(policy UndefinedPolicy) (*Engine, error) {
	switch policy {
	case "":
		policy = UndefinedUnknown
	case UndefinedUnknown, UndefinedError:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
	return &Engine{policy: policy}, nil
}

// Policy reports the configured undefined policy.
func (e *Engine) Policy() UndefinedPolicy { return e.policy }

// Parse compiles src once so that syntax errors surface at load time.
func (e *Engine) Parse(src string) (*Template, error) {
	// output goes to entity properties, not HTML
	tpl, err := pongo2.FromString("{% autoescape off %}" + src + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("%w in %q: %w", ErrSyntax, src, err)
	}
	return &Template{src: src, tpl: tpl, policy: e.policy}, nil
}

// Template is a compiled template string.
type Template struct {
	src    string
	tpl    *pongo2.Template
	policy UndefinedPolicy
}

// Source returns the original template text.
func (t *Template) Source() string { return t.src }

// Render executes the template against states. vars are exposed as extra
// template variables (e.g. "percentage"). The output is whitespace-trimmed.
func (t *Template) Render(states States, vars map[string]any) (string, error) {
	r := &resolver{states: states, policy: t.policy}

	ctx := pongo2.Context{}
	for k, v := range vars {
		ctx[k] = v
	}
	ctx["states"] = r.state
	ctx["is_state"] = r.isState
	ctx["state_attr"] = r.stateAttr
	ctx["has_value"] = r.hasValue

	out, err := t.tpl.Execute(ctx)
	if len(r.missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUndefinedEntity, strings.Join(r.missingIDs(), ", "))
	}
	if err != nil {
		return "", fmt.Errorf("render template %q: %w", t.src, err)
	}
	return strings.TrimSpace(out), nil
}

// resolver backs the template functions for a single render.
type resolver struct {
	states  States
	policy  UndefinedPolicy
	missing map[string]struct{}
}

func (r *resolver) get(entityID string) (models.EntityState, bool) {
	st, ok := r.states[strings.TrimSpace(entityID)]
	return st, ok
}

// lookup is get that records misses under the error policy. Only states()
// goes through it; is_state, state_attr and has_value treat a missing entity
// as a plain negative.
func (r *resolver) lookup(entityID string) (models.EntityState, bool) {
	st, ok := r.get(entityID)
	if !ok && r.policy == UndefinedError {
		if r.missing == nil {
			r.missing = make(map[string]struct{})
		}
		r.missing[entityID] = struct{}{}
	}
	return st, ok
}

func (r *resolver) missingIDs() []string {
	ids := make([]string, 0, len(r.missing))
	for id := range r.missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *resolver) state(entityID string) (string, error) {
	st, ok := r.lookup(entityID)
	if !ok {
		if r.policy == UndefinedError {
			return "", fmt.Errorf("%w: %s", ErrUndefinedEntity, entityID)
		}
		return models.StateUnknown, nil
	}
	return st.State, nil
}

func (r *resolver) isState(entityID, value string) bool {
	st, ok := r.get(entityID)
	return ok && st.State == value
}

func (r *resolver) stateAttr(entityID, attr string) any {
	st, ok := r.get(entityID)
	if !ok {
		return nil
	}
	return st.Attributes[attr]
}

func (r *resolver) hasValue(entityID string) bool {
	st, ok := r.get(entityID)
	return ok && st.State != models.StateUnknown && st.State != models.StateUnavailable
}
