package cmd

import (
	"errors"
	"fmt"
	"io"
	"os/user"
	"time"

	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/internal/models"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var errAborted = errors.New("decision not confirmed")

var decisionPrompt = promptui.Select{
	Label: "HR decision",
	Items: []string{models.DecisionSelected, models.DecisionRejected, models.DecisionOnHold, models.DecisionPending},
}

var decideCmd = &cobra.Command{
	Use:   "decide <interview-id>",
	Short: "Record an HR decision on an evaluated interview",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringP("decision", "D", "", "Selected, Rejected, On-Hold or Pending; prompts when unset")
	decideCmd.Flags().StringP("notes", "n", "", "notes stored with the decision")
	decideCmd.Flags().String("by", "", "who made the decision (default is the current user)")
	decideCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runDecide(cmd *cobra.Command, args []string) error {
	interviewID, err := parseID("interview id", args[0])
	if err != nil {
		return err
	}
	decision, _ := cmd.Flags().GetString("decision")
	notes, _ := cmd.Flags().GetString("notes")
	decidedBy, _ := cmd.Flags().GetString("by")
	yes, _ := cmd.Flags().GetBool("yes")

	if decision == "" {
		if _, decision, err = decisionPrompt.Run(); err != nil {
			return err
		}
	}
	if !models.ValidDecision(decision) {
		return fmt.Errorf("unknown decision %q", decision)
	}
	if decidedBy == "" {
		decidedBy = currentUser()
	}

	if !yes {
		if err := confirm(fmt.Sprintf("Record %s for interview %d", decision, interviewID)); err != nil {
			return err
		}
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
	out, err := svc.RecordDecision(ctx, pipeline.DecisionRequest{
		InterviewID: interviewID,
		Decision:    decision,
		Notes:       notes,
		DecidedBy:   decidedBy,
	})
	if err != nil {
		return err
	}
	printDecision(cmd.OutOrStdout(), out)
	return nil
}

func confirm(label string) error {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return errAborted
		}
		return err
	}
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "evalctl"
}

func printDecision(w io.Writer, out *pipeline.DecisionOutcome) {
	fmt.Fprintf(w, "interview %d: %s", out.InterviewID, out.Decision)
	if out.ApplicationStatus != "" {
		fmt.Fprintf(w, " (application %d is now %s)", out.ApplicationID, out.ApplicationStatus)
	}
	fmt.Fprintf(w, " at %s\n", out.DecidedAt.UTC().Format(time.RFC3339))
}
