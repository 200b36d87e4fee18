package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/turnos/internal/auth"
	"github.com/example/turnos/internal/calendar"
	"github.com/example/turnos/internal/config"
	"github.com/example/turnos/internal/logger"
	"github.com/example/turnos/internal/metrics"
	"github.com/example/turnos/internal/patients"
	"github.com/example/turnos/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI and the calendar refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			b, err := openBackend(ctx, cfg, log, migrateUp)
			if err != nil {
				return err
			}
			defer b.Close()

			m := metrics.New()
			feed := &calendar.Feed{Source: b.Appointments, Interval: cfg.CalendarRefresh, Log: log}
			go func() { _ = feed.Run(ctx) }()

			ws := &web.Server{
				Auth:      auth.NewStore(b.Admins, cfg.CookieHashKey, cfg.CookieBlockKey),
				Limiter:   auth.NewLoginLimiter(time.Minute/5, 5),
				Submitter: newSubmitter(b, cfg, log, m),
				Hours:     cfg.Hours,
				Feed:      feed,
				Patients:  patients.Directory{Store: b.Patients},
				Metrics:   m,
				Log:       log,
				BaseURL:   cfg.BaseURL,

				TrustedProxies: cfg.TrustedProxies,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup (postgres backend)")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
