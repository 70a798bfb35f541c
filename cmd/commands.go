package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"template_purifier/internal/config"
	"template_purifier/internal/handlers"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/server"
	"template_purifier/internal/service"
	"template_purifier/internal/template"

	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			a.log.Errorw("failed to close resources", "err", cerr)
		}
	}()

	platform, err := a.platform()
	if err != nil {
		return err
	}
	services, err := a.services(platform)
	if err != nil {
		return err
	}
	apiHandler := handlers.NewHandler(services, a.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		services.Refresher.Run(ctx, a.cfg.Refresh.Interval)
	}()

	srv := server.New(server.Options{
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	})
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(a.cfg.Port, apiHandler.InitRoutes()) }()

	a.log.Infow("server_started",
		"port", a.cfg.Port,
		"hub_mode", a.cfg.Hub.Mode,
		"purifiers", len(platform.Adapters()),
		"refresh_interval", a.cfg.Refresh.Interval,
	)

	select {
	case err = <-serveErr:
		if err != nil {
			err = fmt.Errorf("error starting server: %w", err)
		}
	case <-ctx.Done():
		a.log.Infow("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			err = fmt.Errorf("server forced to shutdown: %w", serr)
		}
	}

	// stop the refresh loop before the store goes away
	stop()
	<-refreshDone
	return err
}

// seedStates are the helper and sensor entities configs/air_purifier.yaml reads.
var seedStates = []models.EntityState{
	{EntityID: "input_boolean.purifier_switch", State: models.StateOff,
		Attributes: map[string]any{"friendly_name": "Purifier switch"}},
	{EntityID: "input_number.purifier_fan_speed", State: "40",
		Attributes: map[string]any{"friendly_name": "Purifier fan speed", "min": 0.0, "max": 100.0, "step": 1.0}},
	{EntityID: "input_select.purifier_mode", State: "auto",
		Attributes: map[string]any{"friendly_name": "Purifier mode", "options": []any{"auto", "sleep", "turbo"}}},
	{EntityID: "sensor.bedroom_pm25", State: "12",
		Attributes: map[string]any{"unit_of_measurement": "µg/m³", "device_class": "pm25"}},
	{EntityID: "sensor.bedroom_filter_life", State: "85",
		Attributes: map[string]any{"unit_of_measurement": "%"}},
	{EntityID: "sensor.bedroom_humidity", State: "45",
		Attributes: map[string]any{"unit_of_measurement": "%", "device_class": "humidity"}},
	{EntityID: "sensor.bedroom_temperature", State: "21.5",
		Attributes: map[string]any{"unit_of_measurement": "°C", "device_class": "temperature"}},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	if a.cfg.Hub.Mode != config.HubLocal {
		return fmt.Errorf("seed writes the local state store; hub.mode is %q", a.cfg.Hub.Mode)
	}
	ctx := cmd.Context()
	for _, st := range seedStates {
		if _, err := a.repos.StateRepo.Set(ctx, st); err != nil {
			return fmt.Errorf("seed %s: %w", st.EntityID, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entities into %s\n", len(seedStates), a.cfg.DB.Path)
	return nil
}

// runCheck compiles the platform file without touching the store or the hub.
func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := template.NewEngine(template.UndefinedPolicy(cfg.Templates.Undefined))
	if err != nil {
		return err
	}
	cfgs, err := purifier.LoadPlatform(cfg.Platform.File)
	if err != nil {
		return err
	}
	platform, err := purifier.NewPlatform(cfgs, purifier.Deps{Engine: engine, Log: log})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range platform.Adapters() {
		c := p.Config()
		fmt.Fprintf(out, "%s\t%s\tpreset_modes=%v\n", p.EntityID(), c.Name, c.PresetModes)
	}
	fmt.Fprintf(out, "%s: %d purifier(s) OK\n", cfg.Platform.File, len(platform.Adapters()))
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	out, err := service.NewTemplateService(a.engine, a.states).Render(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
