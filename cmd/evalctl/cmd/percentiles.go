package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var percentilesCmd = &cobra.Command{
	Use:   "percentiles <job-id>",
	Short: "Recompute the percentile of every result for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runPercentiles,
}

func init() {
	rootCmd.AddCommand(percentilesCmd)
}

func runPercentiles(cmd *cobra.Command, args []string) error {
	jobID, err := parseID("job id", args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	percentiles, err := svc.RecalculatePercentiles(ctx, jobID)
	if err != nil {
		return err
	}
	return printPercentiles(cmd.OutOrStdout(), percentiles)
}

// printPercentiles lists results from the highest percentile down.
func printPercentiles(w io.Writer, percentiles map[int64]float64) error {
	ids := make([]int64, 0, len(percentiles))
	for id := range percentiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if percentiles[ids[i]] != percentiles[ids[j]] {
			return percentiles[ids[i]] > percentiles[ids[j]]
		}
		return ids[i] < ids[j]
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESULT\tPERCENTILE")
	for _, id := range ids {
		fmt.Fprintf(tw, "%d\t%.1f\n", id, percentiles[id])
	}
	return tw.Flush()
}
