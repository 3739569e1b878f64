package cmd

import (
	"fmt"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/queue"

	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <kind>",
	Short: "Publish an evaluation request to the intake queue",
	Long: "Publish an evaluation request to the intake queue.\n\nkind is one of " +
		queue.KindApplicationSubmitted + ", " + queue.KindInterviewCompleted + " or " + queue.KindHRDecision + ".",
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)

	enqueueCmd.Flags().Int64("application", 0, "application id")
	enqueueCmd.Flags().Int64("interview", 0, "interview id")
	enqueueCmd.Flags().Int64("job", 0, "job id")
	enqueueCmd.Flags().String("decision", "", "HR decision for hr_decision requests")
	enqueueCmd.Flags().String("notes", "", "decision notes")
	enqueueCmd.Flags().String("by", "", "who made the decision")
}

// requestFromFlags builds and validates the message described by the flags.
func requestFromFlags(cmd *cobra.Command, kind string) (queue.EvaluationRequest, error) {
	f := cmd.Flags()
	req := queue.EvaluationRequest{Kind: kind}
	req.ApplicationID, _ = f.GetInt64("application")
	req.InterviewID, _ = f.GetInt64("interview")
	req.JobID, _ = f.GetInt64("job")
	req.Decision, _ = f.GetString("decision")
	req.Notes, _ = f.GetString("notes")
	req.DecidedBy, _ = f.GetString("by")
	if req.Kind == queue.KindHRDecision && req.DecidedBy == "" {
		req.DecidedBy = currentUser()
	}
	return req, req.Validate()
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zapLog := logger.New(logLevel(), logFormat())
	defer zapLog.Sync()

	mq, err := queue.New(cfg.Queue, logger.NewZapAdapter(zapLog))
	if err != nil {
		return err
	}
	defer mq.Close()

	if err := mq.Publish(cmd.Context(), req); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", req.Kind, cfg.Queue.QueueName)
	return nil
}
