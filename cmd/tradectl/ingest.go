package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/trade/service"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a trade spreadsheet",
	}
	cmd.AddCommand(ingestFlowCmd("exports", model.TradeFlowExport))
	cmd.AddCommand(ingestFlowCmd("imports", model.TradeFlowImport))
	return cmd
}

func ingestFlowCmd(use string, flow model.TradeFlow) *cobra.Command {
	return &cobra.Command{
		Use:   use + " FILE",
		Short: fmt.Sprintf("Ingest a monthly %s spreadsheet (.xlsx or .csv)", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			return withDatabase(cmd, func(ctx context.Context, db *gorm.DB) error {
				ingestor := ingest.NewIngestor(ingest.NewGormStore(db), nil)
				summary, err := ingestor.IngestFile(ctx, flow, filepath.Base(args[0]), f)
				if summary != nil {
					printSummary(cmd.OutOrStdout(), summary)
				}
				return err
			})
		},
	}
}

// printSummary writes the run totals followed by one line per row that was not inserted.
func printSummary(w io.Writer, s *ingest.Summary) {
	fmt.Fprintf(w, "%s %s %s (run %s)\n", headerStyle.Render("Ingestion:"), s.Flow, s.FileName, s.RunID)
	if s.Phase == model.IngestionPhaseFailed {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Failed:"), s.Error)
		return
	}
	fmt.Fprintf(w, "  rows:      %d\n", s.TotalRows)
	fmt.Fprintf(w, "  inserted:  %d\n", s.Inserted)
	fmt.Fprintf(w, "  skipped:   %d\n", s.Skipped)
	fmt.Fprintf(w, "  errors:    %d\n", s.Errors)
	fmt.Fprintf(w, "  products:  %d created, %d reused\n", s.ProductsCreated, s.ProductsReused)
	fmt.Fprintf(w, "  duration:  %s\n", s.Duration)
	for _, issue := range s.Issues {
		fmt.Fprintf(w, "  line %d %s: %s %s\n", issue.Line, issue.Status, issue.Reason, mutedStyle.Render(issue.Detail))
	}
}

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingestion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, db *gorm.DB) error {
				runs, err := service.NewIngestionService(db, nil, nil, 0).ListRuns(ctx, model.IngestionRunFilter{Limit: &limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %d total\n", headerStyle.Render("Runs:"), runs.TotalCount)
				for _, r := range runs.Items {
					fmt.Fprintf(out, "  %s  %-6s %-8s %s  inserted=%d skipped=%d errors=%d\n",
						r.StartedAt.Format("2006-01-02 15:04:05"), r.Flow, r.Phase, r.FileName, r.Inserted, r.Skipped, r.Errors)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
