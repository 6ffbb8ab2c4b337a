package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/trade/service"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}
	cmd.AddCommand(seedCountriesCmd())
	cmd.AddCommand(seedHSCodesCmd())
	return cmd
}

func seedCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "Insert every ISO 3166 country that is not present yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *gorm.DB) error {
				created, err := service.NewReferenceService(db).SeedCountries(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d countries added\n", headerStyle.Render("Countries:"), created)
				return nil
			})
		},
	}
}

func seedHSCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hscodes FILE",
		Short: "Load HS codes from a CODE/DESCRIPTION spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			return withDatabase(cmd, func(ctx context.Context, db *gorm.DB) error {
				summary, err := service.NewReferenceService(db).ImportHSCodes(ctx, filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %d created, %d already present, %d invalid\n",
					headerStyle.Render("HS codes:"), summary.Created, summary.Skipped, len(summary.Invalid))
				for _, issue := range summary.Invalid {
					fmt.Fprintf(out, "  line %d: %s\n", issue.Line, mutedStyle.Render(issue.Detail))
				}
				return nil
			})
		},
	}
}
