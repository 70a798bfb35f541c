package service

import (
	"context"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
)

type PurifierService struct {
	platform *purifier.Platform
	log      *logger.Logger
}

func NewPurifierService(platform *purifier.Platform, log *logger.Logger) *PurifierService {
	if log == nil {
		log = logger.Nop()
	}
	return &PurifierService{platform: platform, log: log}
}

// List returns every purifier's last published state in configuration order.
func (s *PurifierService) List(ctx context.Context) []models.PurifierState {
	adapters := s.platform.Adapters()
	out := make([]models.PurifierState, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, a.State())
	}
	return out
}

func (s *PurifierService) Get(ctx context.Context, id string) (models.PurifierState, error) {
	a, err := s.platform.Get(id)
	if err != nil {
		return models.PurifierState{}, err
	}
	return a.State(), nil
}

// Refresh re-renders one purifier now instead of waiting for the next tick.
func (s *PurifierService) Refresh(ctx context.Context, id string) (models.PurifierState, error) {
	a, err := s.platform.Get(id)
	if err != nil {
		return models.PurifierState{}, err
	}
	if err := s.platform.Refresh(ctx, a); err != nil {
		return a.State(), err
	}
	return a.State(), nil
}

func (s *PurifierService) TurnOn(ctx context.Context, id string) (models.PurifierState, error) {
	return s.control(ctx, id, "turn_on", (*purifier.Adapter).Activate)
}

func (s *PurifierService) TurnOff(ctx context.Context, id string) (models.PurifierState, error) {
	return s.control(ctx, id, "turn_off", (*purifier.Adapter).Deactivate)
}

func (s *PurifierService) SetPercentage(ctx context.Context, id string, percentage int) (models.PurifierState, error) {
	return s.control(ctx, id, "set_percentage", func(a *purifier.Adapter, ctx context.Context) error {
		return a.SetPercentage(ctx, percentage)
	})
}

func (s *PurifierService) SetPresetMode(ctx context.Context, id, mode string) (models.PurifierState, error) {
	return s.control(ctx, id, "set_preset_mode", func(a *purifier.Adapter, ctx context.Context) error {
		return a.SetPresetMode(ctx, mode)
	})
}

// control forwards a request to the purifier, then refreshes it so the
// response reflects the new state when the call was applied synchronously.
func (s *PurifierService) control(ctx context.Context, id, op string, fn func(*purifier.Adapter, context.Context) error) (models.PurifierState, error) {
	a, err := s.platform.Get(id)
	if err != nil {
		return models.PurifierState{}, err
	}
	if err := fn(a, ctx); err != nil {
		return a.State(), err
	}
	if err := s.platform.Refresh(ctx, a); err != nil {
		s.log.Warnw("purifier_post_action_refresh_failed", "entity_id", a.EntityID(), "op", op, "err", err)
	}
	return a.State(), nil
}
