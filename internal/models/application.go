// internal/models/application.go
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Application statuses.
const (
	StatusApplied     = "Applied"
	StatusScreening   = "Screening"
	StatusShortlisted = "Shortlisted"
	StatusInterview   = "Interview"
	StatusRejected    = "Rejected"
	StatusHired       = "Hired"
)

// Job is a posting candidates apply to.
type Job struct {
	ID                 int64  `json:"id" db:"job_id"`
	Title              string `json:"title" db:"title"`
	Description        string `json:"description" db:"description"`
	Requirements       string `json:"requirements" db:"requirements"`
	Responsibilities   string `json:"responsibilities" db:"responsibilities"`
	SkillsRequired     string `json:"skillsRequired" db:"skills_required"`
	EducationRequired  string `json:"educationRequired" db:"education_required"`
	ExperienceRequired string `json:"experienceRequired" db:"experience_required"`
}

// Skills returns the comma-separated skills_required as trimmed, lowercased entries.
func (j *Job) Skills() []string {
	return SplitList(j.SkillsRequired)
}

// Application pairs a candidate with a job.
type Application struct {
	ID             int64           `json:"id" db:"app_id"`
	JobID          int64           `json:"jobId" db:"job_id"`
	CandidateID    int64           `json:"candidateId" db:"candidate_id"`
	ResumePath     string          `json:"resumePath" db:"resume_path"`
	AIResumeScore  float64         `json:"aiResumeScore" db:"ai_resume_score"`
	ResumeAnalysis json.RawMessage `json:"resumeAnalysis,omitempty" db:"resume_analysis"`
	Status         string          `json:"status" db:"status"`
	AppliedAt      time.Time       `json:"appliedAt" db:"applied_at"`
}

// CandidateContact is what notifications need to reach a candidate.
type CandidateContact struct {
	CandidateID int64  `json:"candidateId"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
}

// ActivityLog is one audit trail entry.
type ActivityLog struct {
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entityType" db:"entity_type"`
	EntityID   int64     `json:"entityId" db:"entity_id"`
	Details    string    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SplitList splits a comma-separated list, dropping blanks and lowercasing entries.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
