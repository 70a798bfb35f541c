package repository

import (
	"context"
	"database/sql"
	"time"

	"template_purifier/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// StateRepo is the hub's entity state registry.
type StateRepo interface {
	Get(ctx context.Context, entityID string) (models.EntityState, bool, error)
	List(ctx context.Context) ([]models.EntityState, error)
	Set(ctx context.Context, s models.EntityState) (models.EntityState, error)
}

// CallRepo is the append-only log of dispatched service calls.
type CallRepo interface {
	Append(ctx context.Context, c models.ServiceCall) error
	List(ctx context.Context, from, to time.Time, domain string) ([]models.ServiceCall, error)
}

type Repository struct {
	StateRepo StateRepo
	CallRepo  CallRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		CallRepo:  NewCallSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
