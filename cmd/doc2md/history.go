package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions from the run history",
	Long: `History lists recent conversions recorded in the SQLite run history
(history_db in the config). The history is diagnostic only; it is never used
to skip or cache conversions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HistoryDB == "" {
			return fmt.Errorf("run history is disabled; set history_db in the config")
		}
		hist := openHistory()
		if hist == nil {
			return fmt.Errorf("cannot open run history at %s", cfg.HistoryDB)
		}
		defer hist.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		verbose, _ := cmd.Flags().GetBool("attempts")
		entries, err := hist.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSTATUS\tFORMAT\tSTRATEGY\tCONVERTER\tPATH")
		for _, e := range entries {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.RecordedAt.Local().Format(time.DateTime), status,
				e.Format, e.Strategy, e.Converter, e.Path)
			if verbose {
				for _, a := range e.Attempts {
					fmt.Fprintf(w, "\t\t\t\t\t  %s\n", a)
				}
			}
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of conversions to show")
	historyCmd.Flags().Bool("attempts", false, "show every attempt per conversion")

	rootCmd.AddCommand(historyCmd)
}
