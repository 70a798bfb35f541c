package main

import (
	"fmt"
	"os"

	_ "template_purifier/docs"

	"github.com/spf13/cobra"
)

// @title                       Template Air Purifier API
// @version                     1.0
// @description                 Template-driven air purifier entities on top of a home-automation state registry.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

var configDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "purifier",
		Short: "Template air purifier adapter",
		Long: `Exposes template-driven air purifiers over an HTTP API.

Each purifier renders its state, fan speed, preset mode and sensor
attributes from templates over the hub's entity states, and maps
on/off/speed/preset commands to configured service calls.

Quick Start:
  purifier seed      # insert example helper entities
  purifier check     # validate configs/air_purifier.yaml
  purifier serve     # start the API on :8080`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "Directory holding config.yml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server and the refresh loop",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the example helper entities into the local state store",
			Long: `Insert the helper and sensor entities the example platform file
reads from. Existing entities are overwritten. Only meaningful in local hub mode.`,
			RunE: runSeed,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the platform file and compile every template",
			RunE:  runCheck,
		},
		&cobra.Command{
			Use:     "render <template>",
			Short:   "Render a template against the current entity states",
			Example: `  purifier render "{{ states('sensor.bedroom_pm25') }}"`,
			Args:    cobra.ExactArgs(1),
			RunE:    runRender,
		},
	)
	return root
}
