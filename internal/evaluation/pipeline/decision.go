package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/store"
)

// DecisionRequest is an HR verdict on an evaluated interview.
type DecisionRequest struct {
	InterviewID int64
	Decision    string
	Notes       string
	DecidedBy   string
}

// DecisionOutcome reports what RecordDecision changed.
type DecisionOutcome struct {
	InterviewID       int64     `json:"interviewId"`
	ApplicationID     int64     `json:"applicationId"`
	JobID             int64     `json:"jobId"`
	Decision          string    `json:"decision"`
	ApplicationStatus string    `json:"applicationStatus,omitempty"`
	DecidedAt         time.Time `json:"decidedAt"`
}

// RecordDecision stores an HR decision on an interview's result. The
// interview must already have been evaluated.
func (s *Service) RecordDecision(ctx context.Context, req DecisionRequest) (*DecisionOutcome, error) {
	decision := strings.TrimSpace(req.Decision)
	if !models.ValidDecision(decision) {
		return nil, errors.NewInvalidHRDecisionError(req.Decision)
	}

	iv, err := s.Repo.GetInterview(ctx, req.InterviewID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewInterviewNotFoundError(req.InterviewID)
		}
		return nil, errors.NewQueryExecutionFailedError("get_interview", err)
	}
	result, err := s.Repo.GetResultByInterview(ctx, iv.ID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewBusinessRuleError("Interview has not been evaluated",
				fmt.Sprintf("no result for interview %d", iv.ID))
		}
		return nil, errors.NewQueryExecutionFailedError("get_result", err)
	}

	out := &DecisionOutcome{
		InterviewID:   iv.ID,
		ApplicationID: iv.ApplicationID,
		Decision:      decision,
		DecidedAt:     s.now(),
	}
	err = s.Repo.RecordDecision(ctx, store.Decision{
		InterviewID: iv.ID,
		Decision:    decision,
		Notes:       req.Notes,
		DecidedBy:   req.DecidedBy,
		DecidedAt:   out.DecidedAt,
	}, iv.ApplicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewResultNotFoundError(err.Error())
		}
		return nil, errors.NewQueryExecutionFailedError("record_decision", err)
	}
	out.ApplicationStatus, _ = models.ApplicationStatusForDecision(decision)

	s.logActivity(ctx, models.ActivityLog{
		Action:     "HR Decision",
		EntityType: "Interview",
		EntityID:   iv.ID,
		Details:    fmt.Sprintf("%s by %s", decision, req.DecidedBy),
	})

	app, err := s.Repo.GetApplication(ctx, iv.ApplicationID)
	if err != nil {
		s.logger.Warn("application lookup after decision failed", map[string]interface{}{"applicationId": iv.ApplicationID, "error": err.Error()})
		return out, nil
	}
	out.JobID = app.JobID
	s.reindexDecision(ctx, result, app, decision)

	s.logger.Info("hr decision recorded", map[string]interface{}{
		"interviewId": iv.ID,
		"decision":    decision,
		"decidedBy":   req.DecidedBy,
	})
	return out, nil
}

func (s *Service) reindexDecision(ctx context.Context, res *models.CandidateResult, app *models.Application, decision string) {
	if s.Index == nil {
		return
	}
	job, err := s.Repo.GetJob(ctx, app.JobID)
	if err != nil {
		s.logger.Warn("job lookup for reindex failed", map[string]interface{}{"jobId": app.JobID, "error": err.Error()})
		return
	}
	var name string
	if contact, err := s.Repo.GetCandidateContact(ctx, app.ID); err == nil {
		name = contact.FullName
	}
	ev := &Evaluation{
		InterviewID:   res.InterviewID,
		ApplicationID: app.ID,
		JobID:         job.ID,
		ResultID:      res.ID,
		OverallScore:  res.OverallScore,
		Percentile:    res.Percentile,
	}
	ev.Resume.Score = res.ResumeScore
	ev.Confidence.Score = res.ConfidenceScore
	ev.Communication.Score = res.CommunicationScore
	ev.Knowledge.Score = res.KnowledgeScore
	s.index(ctx, ev, job, name, decision)
}
