package cmd

import (
	"context"
	"fmt"

	"github.com/example/turnos/internal/auth"
	"github.com/example/turnos/internal/config"
	"github.com/example/turnos/internal/logger"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminAddCmd())
	return cmd
}

func newAdminAddCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add an administrator (username/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("admin accounts are only stored with STORE_BACKEND=postgres; set ADMIN_PASSWORD for %s", cfg.StoreBackend)
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg, logger.New(cfg.LogLevel), true)
			if err != nil {
				return err
			}
			defer b.Close()

			// cookie keys are irrelevant here; only the admins table is touched
			store := auth.NewStore(b.Admins, nil, nil)
			if err := store.CreateAdmin(ctx, username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q\n", username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
