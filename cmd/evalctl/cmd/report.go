package cmd

import (
	"fmt"
	"io"

	"candidate-evaluator/internal/report"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <job-id>",
	Short: "Export the ranked candidates of a job to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output-dir", "o", "", "directory for the workbook (default is report.output_dir)")
}

func runReport(cmd *cobra.Command, args []string) error {
	jobID, err := parseID("job id", args[0])
	if err != nil {
		return err
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	exporter, err := e.exporter(ctx, outputDir)
	if err != nil {
		return err
	}
	rep, err := exporter.Export(ctx, jobID)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), rep)
	return nil
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "job %d: %d candidates written to %s\n", rep.JobID, rep.Candidates, rep.LocalPath)
	if rep.Location != "" && rep.Location != rep.LocalPath {
		fmt.Fprintf(w, "uploaded to %s\n", rep.Location)
	}
}
