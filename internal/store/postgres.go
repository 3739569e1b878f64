// Package store persists jobs, applications, interviews and evaluation
// results in Postgres and mirrors results into an Elasticsearch index.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/models"
)

var ErrNotFound = errors.New("NOT_FOUND")

// Repository is the Postgres-backed store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ==========================
// Reads
// ==========================

func (r *Repository) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var j models.Job
	var responsibilities, skills, education, experience sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT job_id, title, description, requirements, responsibilities,
		       skills_required, education_required, experience_required
		FROM jobs
		WHERE job_id = $1`, id).Scan(
		&j.ID, &j.Title, &j.Description, &j.Requirements, &responsibilities,
		&skills, &education, &experience,
	)
	if err != nil {
		return nil, notFound(err, "job %d", id)
	}
	j.Responsibilities = responsibilities.String
	j.SkillsRequired = skills.String
	j.EducationRequired = education.String
	j.ExperienceRequired = experience.String
	return &j, nil
}

func (r *Repository) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	var a models.Application
	var analysis sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT app_id, job_id, candidate_id, resume_path, ai_resume_score,
		       resume_analysis, status, applied_at
		FROM applications
		WHERE app_id = $1`, id).Scan(
		&a.ID, &a.JobID, &a.CandidateID, &a.ResumePath, &a.AIResumeScore,
		&analysis, &a.Status, &a.AppliedAt,
	)
	if err != nil {
		return nil, notFound(err, "application %d", id)
	}
	if analysis.Valid && analysis.String != "" {
		a.ResumeAnalysis = json.RawMessage(analysis.String)
	}
	return &a, nil
}

func (r *Repository) GetInterview(ctx context.Context, id int64) (*models.Interview, error) {
	return r.scanInterview(r.db.QueryRowContext(ctx, `
		SELECT interview_id, app_id, interview_code, video_path, is_completed,
		       is_analyzed, completed_at, created_at, expires_at
		FROM interviews
		WHERE interview_id = $1`, id), "interview %d", id)
}

// GetInterviewByApplication returns the interview of an application.
func (r *Repository) GetInterviewByApplication(ctx context.Context, appID int64) (*models.Interview, error) {
	return r.scanInterview(r.db.QueryRowContext(ctx, `
		SELECT interview_id, app_id, interview_code, video_path, is_completed,
		       is_analyzed, completed_at, created_at, expires_at
		FROM interviews
		WHERE app_id = $1`, appID), "interview for application %d", appID)
}

func (r *Repository) scanInterview(row *sql.Row, format string, args ...interface{}) (*models.Interview, error) {
	var iv models.Interview
	var video sql.NullString
	var completedAt, expiresAt sql.NullTime
	err := row.Scan(
		&iv.ID, &iv.ApplicationID, &iv.Code, &video, &iv.IsCompleted,
		&iv.IsAnalyzed, &completedAt, &iv.CreatedAt, &expiresAt,
	)
	if err != nil {
		return nil, notFound(err, format, args...)
	}
	iv.VideoPath = video.String
	if completedAt.Valid {
		iv.CompletedAt = &completedAt.Time
	}
	if expiresAt.Valid {
		iv.ExpiresAt = &expiresAt.Time
	}
	return &iv, nil
}

// ListQuestions returns the interview's questions in question order.
func (r *Repository) ListQuestions(ctx context.Context, interviewID int64) ([]models.InterviewQuestion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT question_id, interview_id, question_text, question_type, expected_keywords,
		       difficulty, question_order, time_limit_seconds, answer_transcript, answer_score
		FROM interview_questions
		WHERE interview_id = $1
		ORDER BY question_order`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []models.InterviewQuestion
	for rows.Next() {
		var q models.InterviewQuestion
		var keywords, transcript sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(
			&q.ID, &q.InterviewID, &q.Text, &q.Type, &keywords,
			&q.Difficulty, &q.Order, &q.TimeLimitSeconds, &transcript, &score,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.ExpectedKeywords = keywords.String
		q.AnswerTranscript = transcript.String
		if score.Valid {
			s := score.Float64
			q.AnswerScore = &s
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetCandidateContact returns who to notify about an application.
func (r *Repository) GetCandidateContact(ctx context.Context, appID int64) (*models.CandidateContact, error) {
	var c models.CandidateContact
	var phone sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT c.candidate_id, c.full_name, u.email, c.phone
		FROM applications a
		JOIN candidates c ON c.candidate_id = a.candidate_id
		JOIN users u ON u.user_id = c.user_id
		WHERE a.app_id = $1`, appID).Scan(&c.CandidateID, &c.FullName, &c.Email, &phone)
	if err != nil {
		return nil, notFound(err, "candidate for application %d", appID)
	}
	c.Phone = phone.String
	return &c, nil
}

func (r *Repository) GetResultByInterview(ctx context.Context, interviewID int64) (*models.CandidateResult, error) {
	var res models.CandidateResult
	var resumeD, confD, commD, knowD, summary, notes, decidedBy sql.NullString
	var decidedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT result_id, interview_id, resume_score, confidence_score, communication_score,
		       knowledge_score, resume_analysis_detail, confidence_analysis_detail,
		       communication_analysis_detail, knowledge_analysis_detail, summary,
		       overall_score, overall_percentile, hr_decision, hr_notes, decided_at,
		       decided_by, updated_at
		FROM candidate_results
		WHERE interview_id = $1`, interviewID).Scan(
		&res.ID, &res.InterviewID, &res.ResumeScore, &res.ConfidenceScore, &res.CommunicationScore,
		&res.KnowledgeScore, &resumeD, &confD,
		&commD, &knowD, &summary,
		&res.OverallScore, &res.Percentile, &res.HRDecision, &notes, &decidedAt,
		&decidedBy, &res.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "result for interview %d", interviewID)
	}
	res.ResumeDetail = rawJSON(resumeD)
	res.ConfidenceDetail = rawJSON(confD)
	res.CommunicationDetail = rawJSON(commD)
	res.KnowledgeDetail = rawJSON(knowD)
	res.Summary = rawJSON(summary)
	res.HRNotes = notes.String
	res.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		res.DecidedAt = &decidedAt.Time
	}
	return &res, nil
}

// ResultScore is one result's overall score within a job.
type ResultScore struct {
	ResultID     int64
	OverallScore float64
}

// JobResultScores lists the overall score of every analyzed result of a job.
func (r *Repository) JobResultScores(ctx context.Context, jobID int64) ([]ResultScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cr.result_id, cr.overall_score
		FROM candidate_results cr
		JOIN interviews i ON i.interview_id = cr.interview_id
		JOIN applications a ON a.app_id = i.app_id
		WHERE a.job_id = $1 AND i.is_analyzed = TRUE`, jobID)
	if err != nil {
		return nil, fmt.Errorf("job result scores: %w", err)
	}
	defer rows.Close()

	var out []ResultScore
	for rows.Next() {
		var s ResultScore
		if err := rows.Scan(&s.ResultID, &s.OverallScore); err != nil {
			return nil, fmt.Errorf("scan result score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RankedCandidates returns the analyzed results of a job, best first.
func (r *Repository) RankedCandidates(ctx context.Context, jobID int64) ([]models.RankedCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cr.result_id, cr.interview_id, a.app_id, j.job_id, j.title, c.full_name,
		       cr.resume_score, cr.confidence_score, cr.communication_score, cr.knowledge_score,
		       cr.overall_score, cr.overall_percentile, cr.hr_decision
		FROM candidate_results cr
		JOIN interviews i ON i.interview_id = cr.interview_id
		JOIN applications a ON a.app_id = i.app_id
		JOIN jobs j ON j.job_id = a.job_id
		JOIN candidates c ON c.candidate_id = a.candidate_id
		WHERE a.job_id = $1 AND i.is_analyzed = TRUE
		ORDER BY cr.overall_score DESC, cr.result_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("ranked candidates: %w", err)
	}
	defer rows.Close()

	var out []models.RankedCandidate
	for rows.Next() {
		var rc models.RankedCandidate
		if err := rows.Scan(
			&rc.ResultID, &rc.InterviewID, &rc.ApplicationID, &rc.JobID, &rc.JobTitle, &rc.CandidateName,
			&rc.ResumeScore, &rc.ConfidenceScore, &rc.CommunicationScore, &rc.KnowledgeScore,
			&rc.OverallScore, &rc.Percentile, &rc.HRDecision,
		); err != nil {
			return nil, fmt.Errorf("scan ranked candidate: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// ==========================
// Writes
// ==========================

// UpdateResumeScore stores the resume pillar on the application.
func (r *Repository) UpdateResumeScore(ctx context.Context, appID int64, score float64, analysis json.RawMessage) error {
	return r.execOne(ctx, "update resume score", `
		UPDATE applications
		SET ai_resume_score = $2, resume_analysis = $3, updated_at = NOW()
		WHERE app_id = $1`, appID, score, jsonArg(analysis))
}

func (r *Repository) UpdateApplicationStatus(ctx context.Context, appID int64, status string) error {
	return r.execOne(ctx, "update application status", `
		UPDATE applications
		SET status = $2, updated_at = NOW()
		WHERE app_id = $1`, appID, status)
}

func (r *Repository) MarkInterviewAnalyzed(ctx context.Context, interviewID int64) error {
	return r.execOne(ctx, "mark interview analyzed", `
		UPDATE interviews
		SET is_analyzed = TRUE
		WHERE interview_id = $1`, interviewID)
}

// CreateInterview inserts an interview with its questions in one transaction
// and returns the new interview id.
func (r *Repository) CreateInterview(ctx context.Context, iv *models.Interview, questions []models.InterviewQuestion) (int64, error) {
	var id int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO interviews (app_id, interview_code, is_completed, is_analyzed, created_at, expires_at)
			VALUES ($1, $2, FALSE, FALSE, $3, $4)
			RETURNING interview_id`,
			iv.ApplicationID, iv.Code, iv.CreatedAt, iv.ExpiresAt,
		).Scan(&id); err != nil {
			return fmt.Errorf("insert interview: %w", err)
		}
		for _, q := range questions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO interview_questions (interview_id, question_text, question_type,
				       expected_keywords, difficulty, question_order, time_limit_seconds)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, q.Text, q.Type, q.ExpectedKeywords, q.Difficulty, q.Order, q.TimeLimitSeconds,
			); err != nil {
				return fmt.Errorf("insert question %d: %w", q.Order, err)
			}
		}
		return nil
	})
	return id, err
}

// SaveAnswerScores writes each question's answer score. answer_transcript is
// left as is.
func (r *Repository) SaveAnswerScores(ctx context.Context, questions []models.InterviewQuestion) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, q := range questions {
			if _, err := tx.ExecContext(ctx, `
				UPDATE interview_questions
				SET answer_score = $2
				WHERE question_id = $1`,
				q.ID, q.AnswerScore,
			); err != nil {
				return fmt.Errorf("save answer %d: %w", q.ID, err)
			}
		}
		return nil
	})
}

// SaveResult inserts the result of an interview or updates the existing one
// in place. The HR decision fields are never touched by a re-analysis.
func (r *Repository) SaveResult(ctx context.Context, res *models.CandidateResult) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, upsertResultSQL,
		res.InterviewID, res.ResumeScore, res.ConfidenceScore,
		res.CommunicationScore, res.KnowledgeScore, jsonArg(res.ResumeDetail),
		jsonArg(res.ConfidenceDetail), jsonArg(res.CommunicationDetail),
		jsonArg(res.KnowledgeDetail), jsonArg(res.Summary), res.OverallScore, res.Percentile,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save result: %w", err)
	}
	return id, nil
}

// upsertResultSQL inserts or updates a result in place. The HR decision
// columns are absent from the update list so a re-analysis keeps them.
const upsertResultSQL = `
	INSERT INTO candidate_results (interview_id, resume_score, confidence_score,
	       communication_score, knowledge_score, resume_analysis_detail,
	       confidence_analysis_detail, communication_analysis_detail,
	       knowledge_analysis_detail, summary, overall_score, overall_percentile,
	       hr_decision, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'Pending', NOW(), NOW())
	ON CONFLICT (interview_id) DO UPDATE SET
	       resume_score = EXCLUDED.resume_score,
	       confidence_score = EXCLUDED.confidence_score,
	       communication_score = EXCLUDED.communication_score,
	       knowledge_score = EXCLUDED.knowledge_score,
	       resume_analysis_detail = EXCLUDED.resume_analysis_detail,
	       confidence_analysis_detail = EXCLUDED.confidence_analysis_detail,
	       communication_analysis_detail = EXCLUDED.communication_analysis_detail,
	       knowledge_analysis_detail = EXCLUDED.knowledge_analysis_detail,
	       summary = EXCLUDED.summary,
	       overall_score = EXCLUDED.overall_score,
	       overall_percentile = EXCLUDED.overall_percentile,
	       updated_at = NOW()
	RETURNING result_id`

// UpdatePercentiles writes percentiles keyed by result id in one transaction.
func (r *Repository) UpdatePercentiles(ctx context.Context, percentiles map[int64]float64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for id, p := range percentiles {
			if _, err := tx.ExecContext(ctx, `
				UPDATE candidate_results
				SET overall_percentile = $2
				WHERE result_id = $1`, id, p); err != nil {
				return fmt.Errorf("update percentile %d: %w", id, err)
			}
		}
		return nil
	})
}

// Decision is an HR decision on one result.
type Decision struct {
	InterviewID int64
	Decision    string
	Notes       string
	DecidedBy   string
	DecidedAt   time.Time
}

// RecordDecision stores the decision on the interview's result and, when the
// decision implies one, moves the application to its new status. Both
// happen in one transaction. ErrNotFound means there is no result yet.
func (r *Repository) RecordDecision(ctx context.Context, d Decision, appID int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE candidate_results
			SET hr_decision = $2, hr_notes = $3, decided_by = $4, decided_at = $5, updated_at = NOW()
			WHERE interview_id = $1`,
			d.InterviewID, d.Decision, d.Notes, d.DecidedBy, d.DecidedAt)
		if err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: result for interview %d", ErrNotFound, d.InterviewID)
		}

		status, ok := models.ApplicationStatusForDecision(d.Decision)
		if !ok {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE applications
			SET status = $2, updated_at = NOW()
			WHERE app_id = $1`, appID, status); err != nil {
			return fmt.Errorf("update application status: %w", err)
		}
		return nil
	})
}

// LogActivity appends an audit entry.
func (r *Repository) LogActivity(ctx context.Context, entry models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.Action, entry.EntityType, entry.EntityID, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (r *Repository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, op, args[0])
	}
	return nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
	}
	return fmt.Errorf("query "+format+": %w", append(args, err)...)
}

func rawJSON(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}

// jsonArg passes an empty document as NULL.
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
