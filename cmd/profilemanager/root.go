package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/controld-portal/profile-manager/internal/infrastructure/config"
	"github.com/controld-portal/profile-manager/pkg/logger"
)

const serviceName = "profile-manager"

// app is the state shared by every subcommand. Each subcommand loads only the
// configuration it needs and then calls initLogger.
type app struct {
	envFile string
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "profilemanager",
		Short: "Authentication layer in front of the ControlD profile API",
		Long: `profilemanager issues user and admin sessions, provisions tenant accounts
and relays each user's own DNS-filtering profile to and from ControlD.

Without a subcommand it runs the HTTP server (same as "serve").`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runServe,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(a), newCreateAdminCmd(a))
	return root
}

// setup loads the optional dotenv file.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if a.envFile == "" {
		return nil
	}
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	return nil
}

func (a *app) initLogger(level, env string) {
	a.log = logger.Init(logger.Options{
		Level:   level,
		Pretty:  env == config.EnvDevelopment,
		Service: serviceName,
	})
}
