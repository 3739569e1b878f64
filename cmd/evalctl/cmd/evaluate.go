package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/evaluation/pipeline"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <interview-id>",
	Short: "Evaluate a completed interview and store its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().Duration("timeout", 0, "abort the evaluation after this long (0 means no limit)")
	evaluateCmd.Flags().Bool("raw", false, "print the full evaluation as json")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	interviewID, err := parseID("interview id", args[0])
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := commandContext(cmd.Context(), timeout)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	ev, err := svc.EvaluateInterview(ctx, interviewID)
	if err != nil {
		return err
	}

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}
	return printEvaluation(cmd.OutOrStdout(), ev)
}

func printEvaluation(w io.Writer, ev *pipeline.Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "interview\t%d\n", ev.InterviewID)
	fmt.Fprintf(tw, "application\t%d\n", ev.ApplicationID)
	fmt.Fprintf(tw, "result\t%d\n\n", ev.ResultID)

	fmt.Fprintln(tw, "PILLAR\tSCORE\tSTATUS\tERROR")
	for _, p := range []evaluation.PillarResult{ev.Resume, ev.Confidence, ev.Communication, ev.Knowledge} {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n", p.Pillar, p.Score, p.Status, p.Error)
	}
	fmt.Fprintf(tw, "\noverall\t%.2f\n", ev.OverallScore)
	fmt.Fprintf(tw, "percentile\t%.1f\n", ev.Percentile)
	fmt.Fprintf(tw, "recommendation\t%s\n", ev.Summary.Recommendation)
	return tw.Flush()
}
