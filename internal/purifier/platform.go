package purifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/template"
)

var (
	ErrPurifierNotFound = errors.New("purifier not found")
	ErrDuplicateID      = errors.New("duplicate unique_id")
)

// Publisher writes the purifier's own state back into the hub registry.
type Publisher interface {
	Set(ctx context.Context, s models.EntityState) (models.EntityState, error)
}

// Deps are the hub collaborators shared by every purifier of a platform.
type Deps struct {
	Engine     *template.Engine
	States     StateSource
	Dispatcher Dispatcher
	Publisher  Publisher // optional
	Log        *logger.Logger
}

// Platform owns the configured purifiers and refreshes them on a schedule.
type Platform struct {
	adapters  []*Adapter
	byID      map[string]*Adapter
	publisher Publisher
	log       *logger.Logger
}

// NewPlatform builds one adapter per config and assigns entity ids.
func NewPlatform(cfgs []Config, deps Deps) (*Platform, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Engine == nil {
		engine, err := template.NewEngine(template.UndefinedUnknown)
		if err != nil {
			return nil, err
		}
		deps.Engine = engine
	}

	p := &Platform{
		byID:      make(map[string]*Adapter, len(cfgs)*2),
		publisher: deps.Publisher,
		log:       deps.Log,
	}
	used := make(map[string]struct{}, len(cfgs))
	uniques := make(map[string]struct{}, len(cfgs))

	for i, cfg := range cfgs {
		if cfg.UniqueID != "" {
			if _, dup := uniques[cfg.UniqueID]; dup {
				return nil, fmt.Errorf("air_purifier[%d]: %w: %q", i, ErrDuplicateID, cfg.UniqueID)
			}
			uniques[cfg.UniqueID] = struct{}{}
		}

		entityID := GenerateEntityID(cfg.Name, used)
		a, err := NewAdapter(cfg, entityID, deps.Engine, deps.States, deps.Dispatcher, deps.Log)
		if err != nil {
			return nil, fmt.Errorf("air_purifier[%d] (%s): %w", i, cfg.Name, err)
		}
		if cfg.UsesToggle() {
			deps.Log.Warnw("purifier_toggle_only", "entity_id", entityID,
				"detail", "turn_on and turn_off both call set_state; configure turn_on/turn_off for distinct controls")
		}

		p.adapters = append(p.adapters, a)
		p.byID[entityID] = a
	}

	// a unique_id must not shadow another purifier's entity id or object id
	for i, a := range p.adapters {
		uid := a.UniqueID()
		if uid == "" {
			continue
		}
		for _, key := range []string{uid, EntityDomain + "." + uid} {
			if other, ok := p.byID[key]; ok && other != a {
				return nil, fmt.Errorf("air_purifier[%d]: %w: %q collides with %s", i, ErrDuplicateID, uid, other.EntityID())
			}
		}
		p.byID[uid] = a
	}
	return p, nil
}

// GenerateEntityID derives template_air_purifier.<slug> from name, appending
// _2, _3, ... when the id is already in used. The chosen id is added to used.
func GenerateEntityID(name string, used map[string]struct{}) string {
	base := EntityDomain + "." + slugify(name)
	id := base
	for n := 2; ; n++ {
		if _, taken := used[id]; !taken {
			break
		}
		id = base + "_" + strconv.Itoa(n)
	}
	used[id] = struct{}{}
	return id
}

func slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "purifier"
	}
	return b.String()
}

// Adapters returns the purifiers in configuration order.
func (p *Platform) Adapters() []*Adapter {
	return append([]*Adapter(nil), p.adapters...)
}

// Get finds a purifier by entity id, unique id or the object id after the domain.
func (p *Platform) Get(id string) (*Adapter, error) {
	id = strings.TrimSpace(id)
	if a, ok := p.byID[id]; ok {
		return a, nil
	}
	if a, ok := p.byID[EntityDomain+"."+id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrPurifierNotFound, id)
}

// Refresh re-renders one purifier and publishes its state on success.
// Concurrent refreshes of one purifier publish in render order.
func (p *Platform) Refresh(ctx context.Context, a *Adapter) error {
	if p.publisher == nil {
		return a.Refresh(ctx)
	}
	return a.refresh(ctx, func() error {
		if _, err := p.publisher.Set(ctx, a.PublishedState()); err != nil {
			p.log.Warnw("purifier_publish_failed", "entity_id", a.EntityID(), "err", err)
			return fmt.Errorf("publish %s: %w", a.EntityID(), err)
		}
		return nil
	})
}

// RefreshAll refreshes every purifier; failures are logged and counted.
func (p *Platform) RefreshAll(ctx context.Context) (failed int) {
	for _, a := range p.adapters {
		if err := p.Refresh(ctx, a); err != nil {
			failed++
		}
	}
	return failed
}

// Run refreshes all purifiers once, then on every tick until ctx is canceled.
func (p *Platform) Run(ctx context.Context, tick time.Duration) {
	p.RefreshAll(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if failed := p.RefreshAll(ctx); failed > 0 {
				p.log.Debugw("purifier_refresh_cycle", "failed", failed, "total", len(p.adapters))
			}
		}
	}
}
