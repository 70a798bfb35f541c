package service

import (
	"context"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/repository"
	"template_purifier/internal/template"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Purifiers exposes the template air purifiers: presentation and control.
type Purifiers interface {
	List(ctx context.Context) []models.PurifierState
	Get(ctx context.Context, id string) (models.PurifierState, error)
	TurnOn(ctx context.Context, id string) (models.PurifierState, error)
	TurnOff(ctx context.Context, id string) (models.PurifierState, error)
	Refresh(ctx context.Context, id string) (models.PurifierState, error)
	SetPercentage(ctx context.Context, id string, percentage int) (models.PurifierState, error)
	SetPresetMode(ctx context.Context, id, mode string) (models.PurifierState, error)
}

// States exposes the hub's entity registry.
type States interface {
	List(ctx context.Context) ([]models.EntityState, error)
	Get(ctx context.Context, entityID string) (models.EntityState, error)
	Set(ctx context.Context, p StateParams) (models.EntityState, error)
}

// CallLog exposes the append-only service-call log with filtering.
type CallLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ServiceCall, error)
}

// Templates renders ad-hoc templates against the current states.
type Templates interface {
	Render(ctx context.Context, src string, vars map[string]any) (string, error)
}

// Refresher runs the background loop that re-renders every purifier.
// Stop via context cancellation in main() for graceful shutdown.
type Refresher interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Purifiers
	States
	CallLog
	Templates
	Refresher
	Authorization
}

// Deps carries what NewService wires together. StateReader is where states
// are read from: the SQLite store in local mode, the hub cache in remote
// mode. StateWriter is nil when states are read-only.
type Deps struct {
	Repos       *repository.Repository
	Platform    *purifier.Platform
	Engine      *template.Engine
	StateReader StateReader
	StateWriter repository.StateRepo
	Auth        AuthConfig
	Log         *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		Purifiers:     NewPurifierService(d.Platform, d.Log),
		States:        NewStateService(d.StateReader, d.StateWriter),
		CallLog:       NewCallLogService(d.Repos.CallRepo),
		Templates:     NewTemplateService(d.Engine, d.StateReader),
		Refresher:     d.Platform,
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}
