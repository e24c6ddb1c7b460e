package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/magnetar/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show, newest last")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	log, err := history.Load(history.DefaultPath)
	if err != nil {
		return err
	}

	runs := log.Runs
	if limit > 0 && len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTREE\tARCH\tCASES\tOUTPUT")
	for _, r := range runs {
		out := r.Output
		if out == "" {
			out = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.Tree, r.Arch, r.Cases, out)
	}
	return w.Flush()
}
