package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/report"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/store"
)

var (
	reportRunID  string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a stored run's results to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "report: open store")
		}
		defer st.Close()

		runID := reportRunID
		if runID == "" {
			runs, err := st.ListRuns(ctx, store.RunFilter{Limit: 1})
			if err != nil {
				return eris.Wrap(err, "report: list runs")
			}
			if len(runs) == 0 {
				return eris.New("report: no stored runs")
			}
			runID = runs[0].ID
		}

		result, err := st.GetRunResult(ctx, runID)
		if err != nil {
			return err
		}

		if err := report.NewWriter().Write(result, reportOutput); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (run %s, %d records)\n",
			reportOutput, runID, result.RecordCount)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "run ID (default: most recent)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "waste-report.xlsx", "output workbook path")
	rootCmd.AddCommand(reportCmd)
}
