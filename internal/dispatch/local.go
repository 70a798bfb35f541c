// Package dispatch executes hub service calls against the local state store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/repository"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrEntityNotFound  = errors.New("entity not found")
	ErrMissingEntityID = errors.New("entity_id is required")
	ErrInvalidValue    = errors.New("invalid service data")
)

type handlerFunc func(ctx context.Context, data map[string]any) error

// Local applies the helper services (input_boolean, input_number,
// input_select, homeassistant) directly to the state store and records every
// call in the service-call log.
type Local struct {
	states repository.StateRepo
	calls  repository.CallRepo
	log    *logger.Logger

	handlers map[string]handlerFunc
	applyMu  sync.Mutex // handlers read then write the store
	wg       sync.WaitGroup
}

func NewLocal(states repository.StateRepo, calls repository.CallRepo, log *logger.Logger) *Local {
	if log == nil {
		log = logger.Nop()
	}
	l := &Local{states: states, calls: calls, log: log}
	l.handlers = map[string]handlerFunc{
		"input_boolean.toggle":       l.toggle,
		"input_boolean.turn_on":      l.setSwitch(models.StateOn),
		"input_boolean.turn_off":     l.setSwitch(models.StateOff),
		"input_number.set_value":     l.setNumber,
		"input_select.select_option": l.selectOption,
		"homeassistant.toggle":       l.toggle,
		"homeassistant.turn_on":      l.setSwitch(models.StateOn),
		"homeassistant.turn_off":     l.setSwitch(models.StateOff),
	}
	return l
}

// Services lists the supported "domain.action" names.
func (l *Local) Services() []string {
	out := make([]string, 0, len(l.handlers))
	for name := range l.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Call implements purifier.Dispatcher. Blocking calls return the handler's
// error; non-blocking calls run in the background and always return nil
// once the service is known.
func (l *Local) Call(ctx context.Context, ref purifier.ServiceRef, data map[string]any, blocking bool) error {
	h, ok := l.handlers[strings.ToLower(ref.String())]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrServiceNotFound, ref)
		l.record(ctx, ref, data, blocking, err)
		return err
	}

	if !blocking {
		bg := context.WithoutCancel(ctx)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			err := l.apply(bg, h, data)
			l.record(bg, ref, data, false, err)
		}()
		return nil
	}

	err := l.apply(ctx, h, data)
	l.record(ctx, ref, data, true, err)
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	return nil
}

func (l *Local) apply(ctx context.Context, h handlerFunc, data map[string]any) error {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()
	return h(ctx, data)
}

// Wait blocks until every non-blocking call has finished.
func (l *Local) Wait() { l.wg.Wait() }

func (l *Local) record(ctx context.Context, ref purifier.ServiceRef, data map[string]any, blocking bool, callErr error) {
	recordCall(ctx, l.calls, l.log, ref, data, blocking, callErr)
}

// entityIDs reads data["entity_id"] as a single id or a list of ids.
func entityIDs(data map[string]any) ([]string, error) {
	var ids []string
	switch v := data["entity_id"].(type) {
	case string:
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	case []string:
		ids = append(ids, v...)
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: entity_id entries must be strings", ErrInvalidValue)
			}
			ids = append(ids, strings.TrimSpace(s))
		}
	}
	if len(ids) == 0 {
		return nil, ErrMissingEntityID
	}
	return ids, nil
}

func (l *Local) load(ctx context.Context, id string) (models.EntityState, error) {
	st, ok, err := l.states.Get(ctx, id)
	if err != nil {
		return models.EntityState{}, err
	}
	if !ok {
		return models.EntityState{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return st, nil
}

func (l *Local) toggle(ctx context.Context, data map[string]any) error {
	ids, err := entityIDs(data)
	if err != nil {
		return err
	}
	for _, id := range ids {
		st, err := l.load(ctx, id)
		if err != nil {
			return err
		}
		if st.State == models.StateOn {
			st.State = models.StateOff
		} else {
			st.State = models.StateOn
		}
		st.LastUpdated = time.Time{}
		if _, err := l.states.Set(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) setSwitch(state string) handlerFunc {
	return func(ctx context.Context, data map[string]any) error {
		ids, err := entityIDs(data)
		if err != nil {
			return err
		}
		for _, id := range ids {
			st, err := l.load(ctx, id)
			if err != nil {
				return err
			}
			st.State = state
			st.LastUpdated = time.Time{}
			if _, err := l.states.Set(ctx, st); err != nil {
				return err
			}
		}
		return nil
	}
}

func (l *Local) setNumber(ctx context.Context, data map[string]any) error {
	ids, err := entityIDs(data)
	if err != nil {
		return err
	}
	v, err := toFloat(data["value"])
	if err != nil {
		return err
	}
	for _, id := range ids {
		st, err := l.load(ctx, id)
		if err != nil {
			return err
		}
		if lo, err := toFloat(st.Attributes["min"]); err == nil && v < lo {
			return fmt.Errorf("%w: %s value %v below min %v", ErrInvalidValue, id, v, lo)
		}
		if hi, err := toFloat(st.Attributes["max"]); err == nil && v > hi {
			return fmt.Errorf("%w: %s value %v above max %v", ErrInvalidValue, id, v, hi)
		}
		st.State = strconv.FormatFloat(v, 'f', -1, 64)
		st.LastUpdated = time.Time{}
		if _, err := l.states.Set(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) selectOption(ctx context.Context, data map[string]any) error {
	ids, err := entityIDs(data)
	if err != nil {
		return err
	}
	option, ok := data["option"].(string)
	if !ok || strings.TrimSpace(option) == "" {
		return fmt.Errorf("%w: option is required", ErrInvalidValue)
	}
	for _, id := range ids {
		st, err := l.load(ctx, id)
		if err != nil {
			return err
		}
		if opts, ok := st.Attributes["options"]; ok && !containsOption(opts, option) {
			return fmt.Errorf("%w: %q is not an option of %s", ErrInvalidValue, option, id)
		}
		st.State = option
		st.LastUpdated = time.Time{}
		if _, err := l.states.Set(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func containsOption(opts any, option string) bool {
	switch v := opts.(type) {
	case []string:
		for _, o := range v {
			if o == option {
				return true
			}
		}
	case []any:
		for _, o := range v {
			if s, ok := o.(string); ok && s == option {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: value %q is not a number", ErrInvalidValue, n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: value %v is not a number", ErrInvalidValue, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: value must be finite", ErrInvalidValue)
	}
	return f, nil
}
