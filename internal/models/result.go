package models

import (
	"encoding/json"
	"time"
)

// HR decisions.
const (
	DecisionPending  = "Pending"
	DecisionSelected = "Selected"
	DecisionRejected = "Rejected"
	DecisionOnHold   = "On-Hold"
)

// ValidDecision reports whether d is one of the four HR decisions.
func ValidDecision(d string) bool {
	switch d {
	case DecisionPending, DecisionSelected, DecisionRejected, DecisionOnHold:
		return true
	}
	return false
}

// ApplicationStatusForDecision maps a decision to the application status it
// implies. ok is false when the decision leaves the status untouched.
func ApplicationStatusForDecision(d string) (status string, ok bool) {
	switch d {
	case DecisionSelected:
		return StatusHired, true
	case DecisionRejected:
		return StatusRejected, true
	}
	return "", false
}

// CandidateResult is the evaluation of one interview. There is at most one per interview.
type CandidateResult struct {
	ID                  int64           `json:"id" db:"result_id"`
	InterviewID         int64           `json:"interviewId" db:"interview_id"`
	ResumeScore         float64         `json:"resumeScore" db:"resume_score"`
	ConfidenceScore     float64         `json:"confidenceScore" db:"confidence_score"`
	CommunicationScore  float64         `json:"communicationScore" db:"communication_score"`
	KnowledgeScore      float64         `json:"knowledgeScore" db:"knowledge_score"`
	ResumeDetail        json.RawMessage `json:"resumeDetail,omitempty" db:"resume_analysis_detail"`
	ConfidenceDetail    json.RawMessage `json:"confidenceDetail,omitempty" db:"confidence_analysis_detail"`
	CommunicationDetail json.RawMessage `json:"communicationDetail,omitempty" db:"communication_analysis_detail"`
	KnowledgeDetail     json.RawMessage `json:"knowledgeDetail,omitempty" db:"knowledge_analysis_detail"`
	Summary             json.RawMessage `json:"summary,omitempty" db:"summary"`
	OverallScore        float64         `json:"overallScore" db:"overall_score"`
	Percentile          float64         `json:"percentile" db:"overall_percentile"`
	HRDecision          string          `json:"hrDecision" db:"hr_decision"`
	HRNotes             string          `json:"hrNotes,omitempty" db:"hr_notes"`
	DecidedAt           *time.Time      `json:"decidedAt,omitempty" db:"decided_at"`
	DecidedBy           string          `json:"decidedBy,omitempty" db:"decided_by"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// RankedCandidate is a result joined with who it belongs to, for reports and search.
type RankedCandidate struct {
	ResultID           int64   `json:"resultId"`
	InterviewID        int64   `json:"interviewId"`
	ApplicationID      int64   `json:"applicationId"`
	JobID              int64   `json:"jobId"`
	JobTitle           string  `json:"jobTitle"`
	CandidateName      string  `json:"candidateName"`
	ResumeScore        float64 `json:"resumeScore"`
	ConfidenceScore    float64 `json:"confidenceScore"`
	CommunicationScore float64 `json:"communicationScore"`
	KnowledgeScore     float64 `json:"knowledgeScore"`
	OverallScore       float64 `json:"overallScore"`
	Percentile         float64 `json:"percentile"`
	HRDecision         string  `json:"hrDecision"`
}
