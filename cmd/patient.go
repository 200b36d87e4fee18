package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/example/turnos/internal/config"
	"github.com/example/turnos/internal/logger"
	"github.com/example/turnos/internal/patients"
	"github.com/spf13/cobra"
)

func newPatientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patient",
		Aliases: []string{"paciente"},
		Short:   "Search and register patients",
	}
	cmd.AddCommand(newPatientSearchCmd())
	cmd.AddCommand(newPatientAddCmd())
	return cmd
}

func newPatientSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search NAME",
		Short: "Find patients whose first or last name contains NAME",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, logger.New(cfg.LogLevel), false)
			if err != nil {
				return err
			}
			defer b.Close()

			found, err := patients.Directory{Store: b.Patients}.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DNI\tAPELLIDO\tNOMBRE\tOBRA SOCIAL\tN° ASOCIADO")
			for _, p := range found {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.DNI, p.LastName, p.FirstName, p.InsuranceProvider, p.MemberNumber)
			}
			return tw.Flush()
		},
	}
}

func newPatientAddCmd() *cobra.Command {
	var p patients.Patient

	c := &cobra.Command{
		Use:   "add",
		Short: "Register or update a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, logger.New(cfg.LogLevel), false)
			if err != nil {
				return err
			}
			defer b.Close()

			saved, err := patients.Directory{Store: b.Patients}.Add(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved patient dni=%s %s\n", saved.DNI, saved.FullName())
			return nil
		},
	}

	c.Flags().StringVar(&p.DNI, "dni", "", "DNI")
	c.Flags().StringVar(&p.FirstName, "nombre", "", "first name")
	c.Flags().StringVar(&p.LastName, "apellido", "", "last name")
	c.Flags().StringVar(&p.InsuranceProvider, "obra-social", "", "insurance provider")
	c.Flags().StringVar(&p.MemberNumber, "numero-asociado", "", "insurance member number")
	c.Flags().StringVar(&p.ClinicalHistory, "historial", "", "clinical history notes")
	c.Flags().StringVar(&p.Medications, "medicamentos", "", "current medications")
	_ = c.MarkFlagRequired("dni")
	_ = c.MarkFlagRequired("nombre")
	return c
}
