package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"template_purifier/internal/models"
	"template_purifier/internal/repository"
)

var (
	ErrStateNotFound  = errors.New("entity state not found")
	ErrStatesReadOnly = errors.New("states are read-only against a remote hub")
	ErrInvalidState   = errors.New("invalid state: entity_id must be <domain>.<object_id> and state must be non-empty")
)

// StateReader is satisfied by the SQLite state store and by the remote hub cache.
type StateReader interface {
	List(ctx context.Context) ([]models.EntityState, error)
	Get(ctx context.Context, entityID string) (models.EntityState, bool, error)
}

type StateService struct {
	reader StateReader
	writer repository.StateRepo
}

func NewStateService(reader StateReader, writer repository.StateRepo) *StateService {
	return &StateService{reader: reader, writer: writer}
}

func (s *StateService) List(ctx context.Context) ([]models.EntityState, error) {
	list, err := s.reader.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.EntityState{}
	}
	return list, nil
}

func (s *StateService) Get(ctx context.Context, entityID string) (models.EntityState, error) {
	id := strings.TrimSpace(entityID)
	st, ok, err := s.reader.Get(ctx, id)
	if err != nil {
		return models.EntityState{}, err
	}
	if !ok {
		return models.EntityState{}, fmt.Errorf("%w: %s", ErrStateNotFound, id)
	}
	return st, nil
}

// Set writes a state. Attributes are kept from the stored entity unless
// the request supplies new ones.
func (s *StateService) Set(ctx context.Context, p StateParams) (models.EntityState, error) {
	if s.writer == nil {
		return models.EntityState{}, ErrStatesReadOnly
	}
	id := strings.TrimSpace(p.EntityID)
	state := strings.TrimSpace(p.State)
	if state == "" {
		return models.EntityState{}, ErrInvalidState
	}
	if domain, object, ok := strings.Cut(id, "."); !ok || domain == "" || object == "" {
		return models.EntityState{}, ErrInvalidState
	}

	attrs := p.Attributes
	if attrs == nil {
		prev, found, err := s.writer.Get(ctx, id)
		if err != nil {
			return models.EntityState{}, err
		}
		if found {
			attrs = prev.Attributes
		}
	}
	return s.writer.Set(ctx, models.EntityState{EntityID: id, State: state, Attributes: attrs})
}
