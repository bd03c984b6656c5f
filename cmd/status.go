package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/store"
)

var (
	statusFilter string
	statusLimit  int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(statusFilter),
			Limit:  statusLimit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s  %-12s  %s\n",
				run.ID, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "status", "", "filter by run status")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(statusCmd)
}
