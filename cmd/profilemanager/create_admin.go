package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/service"
	"github.com/controld-portal/profile-manager/internal/infrastructure/config"
	mongodb "github.com/controld-portal/profile-manager/internal/infrastructure/db/mongo"
)

func newCreateAdminCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an admin account",
		Long: `Provision an admin account directly in the credential store.

Admins cannot register over HTTP; this command is the only way to create one.`,
		Example: `  profilemanager create-admin --username root --password "$ADMIN_PASSWORD"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadStore(ctx)
			if err != nil {
				return err
			}
			a.initLogger(cfg.LogLevel, cfg.Env)

			client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(ctx) }()

			users := mongodb.NewUserRepository(db)
			admins := mongodb.NewAdminRepository(db)
			if err := mongodb.EnsureIndexes(ctx, users, admins); err != nil {
				return err
			}

			svc := service.NewAdminService(users, admins, nil, a.log)
			admin, err := svc.CreateAdmin(ctx, username, password)
			switch {
			case errors.Is(err, domain.ErrAdminExists):
				return fmt.Errorf("admin %q already exists", username)
			case errors.Is(err, domain.ErrInvalidInput):
				return errors.New("--username and --password must not be empty")
			case errors.Is(err, domain.ErrPasswordTooLong):
				return fmt.Errorf("--password: %w", err)
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
