package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdhighlight/internal/config"
	"github.com/dgallion1/mdhighlight/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs [runID]",
	Short: "List recorded pipeline runs",
	Long: `Runs reads the sqlite ledger and lists recent pipeline runs. With a
run ID it also prints the per-chunk status trail, which shows where a
partial run stopped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("ledger")
		if path == "" {
			path = config.Load().LedgerPath
		}

		ctx := cmd.Context()
		ledger, err := store.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer ledger.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()

		if len(args) == 1 {
			runID := args[0]
			run, err := ledger.GetRun(ctx, runID)
			if err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}
			fmt.Fprintf(w, "run\t%s\npath\t%s\noutput\t%s\nstatus\t%s\nchunks\t%d (%d annotated, %d degraded)\nupdated\t%s\n\n",
				run.ID, run.Path, run.OutputPath, run.Status,
				run.TotalChunks, run.Annotated, run.Degraded,
				run.UpdatedAt.Format("2006-01-02 15:04:05"))

			chunks, err := ledger.Chunks(ctx, runID)
			if err != nil {
				return fmt.Errorf("chunk trail: %w", err)
			}
			fmt.Fprintln(w, "CHUNK\tLINES\tSTATUS")
			for _, c := range chunks {
				fmt.Fprintf(w, "%d\t%d-%d\t%s\n", c.Index, c.StartLine, c.EndLine, c.Status)
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := ledger.ListRuns(ctx, limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		fmt.Fprintln(w, "RUN\tPATH\tSTATUS\tCHUNKS\tDEGRADED\tUPDATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.Path, r.Status, r.TotalChunks, r.Degraded,
				r.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().String("ledger", "", "sqlite ledger path (default: LEDGER_PATH)")
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")

	rootCmd.AddCommand(runsCmd)
}
