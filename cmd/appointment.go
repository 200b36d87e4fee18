package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/config"
	"github.com/example/turnos/internal/logger"
	"github.com/spf13/cobra"
)

func newAppointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"turno"},
		Short:   "List, book and delete appointments (non-UI)",
	}
	cmd.AddCommand(newAppointmentListCmd())
	cmd.AddCommand(newAppointmentBookCmd())
	cmd.AddCommand(newAppointmentDeleteCmd())
	return cmd
}

func newAppointmentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every appointment, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel)
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			view, err := newSubmitter(b, cfg, log, nil).Load(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tHORARIO\tDNI\tNOMBRE\tOBRA SOCIAL\tN° ASOCIADO")
			for _, s := range view.Slots() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID, cfg.Hours.In(s.ScheduledAt).Format(booking.LocalLayout), s.PatientID, s.PatientName, s.InsuranceProvider, s.MemberNumber)
			}
			return tw.Flush()
		},
	}
}

func newAppointmentBookCmd() *cobra.Command {
	var dni, name, insurance, member, moment string

	c := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment with the same checks as the web form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel)

			f, err := booking.NewForm(dni, name, insurance, member, moment, cfg.Hours.Location)
			if err != nil {
				return err
			}
			if snapped, changed := cfg.Hours.Snap(f.ScheduledAt); changed {
				return fmt.Errorf("horario %s is not on the 15 minute grid, nearest is %s",
					moment, cfg.Hours.In(snapped).Format(booking.LocalLayout))
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			sub := newSubmitter(b, cfg, log, nil)
			view, err := sub.Load(ctx)
			if err != nil {
				return err
			}
			created, err := sub.Submit(ctx, f, view)
			if err != nil {
				if reason, ok := booking.RejectionReason(err); ok {
					return fmt.Errorf("%s: %s", reason, sub.Validator.Message(reason))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booked id=%s horario=%s\n",
				created.ID, cfg.Hours.In(created.ScheduledAt).Format(booking.LocalLayout))
			return nil
		},
	}

	c.Flags().StringVar(&dni, "dni", "", "patient DNI (digits)")
	c.Flags().StringVar(&name, "nombre", "", "patient name")
	c.Flags().StringVar(&insurance, "obra-social", "", "insurance provider")
	c.Flags().StringVar(&member, "numero-asociado", "", "insurance member number (digits)")
	c.Flags().StringVar(&moment, "horario", "", "appointment start, YYYY-MM-DDTHH:MM in the practice timezone or RFC3339")
	for _, f := range []string{"dni", "nombre", "obra-social", "numero-asociado", "horario"} {
		_ = c.MarkFlagRequired(f)
	}
	return c
}

func newAppointmentDeleteCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete an appointment by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel)
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := newSubmitter(b, cfg, log, nil).Delete(ctx, id, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted id=%s\n", id)
			return nil
		},
	}
	c.Flags().StringVar(&id, "id", "", "appointment id")
	_ = c.MarkFlagRequired("id")
	return c
}
