package hass

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"

	ttlcache "github.com/jellydator/ttlcache/v2"
)

var ErrEntityNotFound = errors.New("entity not found on hub")

// StatesFetcher is the part of Client the state source needs.
type StatesFetcher interface {
	States(ctx context.Context) ([]models.EntityState, error)
}

// StateSource serves hub states from a TTL cache and refetches them once
// the last fetch is older than the reload interval. A failed refetch keeps
// serving cached entries until they expire.
type StateSource struct {
	fetcher StatesFetcher
	cache   *ttlcache.Cache
	reload  time.Duration
	log     *logger.Logger

	mu        sync.Mutex
	fetchedAt time.Time
	dirty     bool
	now       func() time.Time
}

func NewStateSource(fetcher StatesFetcher, cacheTTL, reload time.Duration, log *logger.Logger) *StateSource {
	if log == nil {
		log = logger.Nop()
	}
	cache := ttlcache.NewCache()
	if cacheTTL > 0 {
		_ = cache.SetTTL(cacheTTL)
	}
	return &StateSource{
		fetcher: fetcher,
		cache:   cache,
		reload:  reload,
		log:     log,
		now:     time.Now,
	}
}

func (s *StateSource) update(ctx context.Context) error {
	list, err := s.fetcher.States(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(list))
	for _, st := range list {
		seen[st.EntityID] = struct{}{}
		_ = s.cache.Set(st.EntityID, st)
	}
	// entities the hub no longer reports are gone, not stale
	for _, id := range s.cache.GetKeys() {
		if _, ok := seen[id]; !ok {
			_ = s.cache.Remove(id)
		}
	}
	s.fetchedAt = s.now()
	s.dirty = false
	s.log.Debugw("hass_states_fetched", "count", len(list))
	return nil
}

func (s *StateSource) ensureFresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty && !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.reload {
		return nil
	}
	if err := s.update(ctx); err != nil {
		if s.fetchedAt.IsZero() {
			return err
		}
		s.log.Warnw("hass_states_fetch_failed", "err", err, "serving_cached", s.cache.Count())
	}
	return nil
}

// List implements purifier.StateSource. Entities are ordered by id.
func (s *StateSource) List(ctx context.Context) ([]models.EntityState, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	items := s.cache.GetItems()
	out := make([]models.EntityState, 0, len(items))
	for _, v := range items {
		if st, ok := v.(models.EntityState); ok {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// Get returns one cached entity.
func (s *StateSource) Get(ctx context.Context, entityID string) (models.EntityState, bool, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return models.EntityState{}, false, err
	}
	v, err := s.cache.Get(entityID)
	if errors.Is(err, ttlcache.ErrNotFound) {
		return models.EntityState{}, false, nil
	}
	if err != nil {
		return models.EntityState{}, false, err
	}
	st, ok := v.(models.EntityState)
	return st, ok, nil
}

// Invalidate forces the next read to refetch from the hub.
func (s *StateSource) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *StateSource) Close() error { return s.cache.Close() }
