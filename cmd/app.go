package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"template_purifier/internal/config"
	"template_purifier/internal/dispatch"
	"template_purifier/internal/hass"
	"template_purifier/internal/logger"
	"template_purifier/internal/purifier"
	"template_purifier/internal/repository"
	"template_purifier/internal/repository/db"
	"template_purifier/internal/service"
	"template_purifier/internal/template"
)

// app holds the collaborators shared by the commands. In local hub mode
// states live in SQLite and helper services are applied to it; in remote
// mode they are read from and sent to a Home Assistant instance, and SQLite
// only keeps users and the service-call log.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *sql.DB
	repos *repository.Repository

	engine     *template.Engine
	states     service.StateReader
	writer     repository.StateRepo // nil when states are read-only
	dispatcher purifier.Dispatcher
	publisher  purifier.Publisher // nil when publishing is disabled

	waiters []func()
	closers []func() error
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading config: %w", err)
	}
	return cfg, logger.Get(cfg.Log.Level, cfg.Log.Encoding), nil
}

func newApp() (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	engine, err := template.NewEngine(template.UndefinedPolicy(cfg.Templates.Undefined))
	if err != nil {
		return nil, err
	}

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to init sqlite: %w", err)
	}
	a := &app{
		cfg:     cfg,
		log:     log,
		db:      conn,
		repos:   repository.NewRepository(conn),
		engine:  engine,
		closers: []func() error{conn.Close},
	}

	switch cfg.Hub.Mode {
	case config.HubRemote:
		client := hass.NewClient(cfg.Hub.URL, cfg.Hub.Token, cfg.Hub.Timeout, log)
		source := hass.NewStateSource(client, cfg.Hub.CacheTTL, cfg.Refresh.Interval, log)
		a.states = source
		a.dispatcher = dispatch.NewRecorded(client, a.repos.CallRepo, log, source.Invalidate)
		if cfg.Publish {
			a.publisher = hass.Publisher{Client: client}
		}
		a.waiters = append(a.waiters, client.Wait)
		a.closers = append([]func() error{source.Close}, a.closers...)
	default:
		local := dispatch.NewLocal(a.repos.StateRepo, a.repos.CallRepo, log)
		a.states = a.repos.StateRepo
		a.writer = a.repos.StateRepo
		a.dispatcher = local
		if cfg.Publish {
			a.publisher = a.repos.StateRepo
		}
		a.waiters = append(a.waiters, local.Wait)
	}
	return a, nil
}

// platform loads the platform file and builds one adapter per purifier.
func (a *app) platform() (*purifier.Platform, error) {
	cfgs, err := purifier.LoadPlatform(a.cfg.Platform.File)
	if err != nil {
		return nil, err
	}
	return purifier.NewPlatform(cfgs, purifier.Deps{
		Engine:     a.engine,
		States:     a.states,
		Dispatcher: a.dispatcher,
		Publisher:  a.publisher,
		Log:        a.log,
	})
}

func (a *app) services(platform *purifier.Platform) (*service.Service, error) {
	key := a.cfg.Auth.SigningKey
	if key == "" {
		var err error
		if key, err = randomKey(); err != nil {
			return nil, err
		}
		a.log.Warnw("auth_signing_key_generated", "detail", "tokens do not survive a restart; set auth.signing_key")
	}
	return service.NewService(service.Deps{
		Repos:       a.repos,
		Platform:    platform,
		Engine:      a.engine,
		StateReader: a.states,
		StateWriter: a.writer,
		Auth:        service.AuthConfig{SigningKey: key, TokenTTL: a.cfg.Auth.TokenTTL},
		Log:         a.log,
	}), nil
}

// close drains background service calls, then releases caches and the database.
func (a *app) close() error {
	for _, wait := range a.waiters {
		wait()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
