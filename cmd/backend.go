package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/turnos/internal/appointments"
	"github.com/example/turnos/internal/auth"
	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/config"
	"github.com/example/turnos/internal/crypto"
	"github.com/example/turnos/internal/db"
	"github.com/example/turnos/internal/logger"
	"github.com/example/turnos/internal/migrate"
	"github.com/example/turnos/internal/patients"
	"github.com/example/turnos/internal/supabase"
)

// backend is the set of stores picked by STORE_BACKEND.
type backend struct {
	Appointments booking.Store
	Patients     patients.Store
	Admins       auth.Admins
	// DB is set only for the postgres backend.
	DB *db.DB
}

func (b *backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
}

func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger, migrateUp bool) (*backend, error) {
	b, err := openStores(ctx, cfg, log, migrateUp)
	if err != nil {
		return nil, err
	}
	if len(cfg.PatientDataKey) > 0 {
		box, err := crypto.New(cfg.PatientDataKey)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("patient data key: %w", err)
		}
		b.Patients = patients.SealedStore{Store: b.Patients, Sealer: box}
	}
	return b, nil
}

func openStores(ctx context.Context, cfg config.Config, log *logger.Logger, migrateUp bool) (*backend, error) {
	entry := log.WithComponent("backend").WithField("store", cfg.StoreBackend)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := d.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if migrateUp {
			applied, err := migrate.Up(ctx, d)
			if err != nil {
				d.Close()
				return nil, err
			}
			if len(applied) > 0 {
				entry.WithField("migrations", applied).Info("migrations applied")
			}
		}
		entry.Info("store ready")
		return &backend{
			Appointments: appointments.NewRepo(d),
			Patients:     patients.NewRepo(d),
			Admins:       auth.NewPGAdmins(d),
			DB:           d,
		}, nil

	case config.BackendSupabase:
		client := supabase.New(supabase.Credentials{URL: cfg.SupabaseURL, Key: cfg.SupabaseKey})
		client.Location = cfg.Hours.Location
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("supabase ping: %w", err)
		}
		admins, err := seededAdmins(ctx, cfg)
		if err != nil {
			return nil, err
		}
		entry.Info("store ready")
		return &backend{Appointments: client, Patients: client.Patients(), Admins: admins}, nil

	case config.BackendMemory:
		admins, err := seededAdmins(ctx, cfg)
		if err != nil {
			return nil, err
		}
		entry.Warn("in-memory store: appointments are lost on restart")
		return &backend{
			Appointments: appointments.NewMemoryStore(),
			Patients:     patients.NewMemoryStore(),
			Admins:       admins,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// seededAdmins gives the non-postgres backends a single "admin" account
// whose password comes from ADMIN_PASSWORD.
func seededAdmins(ctx context.Context, cfg config.Config) (*auth.MemoryAdmins, error) {
	admins := auth.NewMemoryAdmins()
	if cfg.AdminPassword == "" {
		return admins, nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	if err := admins.Create(ctx, "admin", hash); err != nil && !errors.Is(err, auth.ErrAdminExists) {
		return nil, err
	}
	return admins, nil
}

func newSubmitter(b *backend, cfg config.Config, log *logger.Logger, obs booking.Observer) *booking.Submitter {
	return &booking.Submitter{
		Store:     b.Appointments,
		Validator: booking.Validator{Hours: cfg.Hours},
		Log:       log,
		Observer:  obs,
	}
}
