package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Question types and difficulties.
const (
	QuestionTechnical   = "Technical"
	QuestionBehavioral  = "Behavioral"
	QuestionSituational = "Situational"
	QuestionGeneral     = "General"

	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Interview is one recorded session for an application.
type Interview struct {
	ID            int64      `json:"id" db:"interview_id"`
	ApplicationID int64      `json:"applicationId" db:"app_id"`
	Code          string     `json:"interviewCode" db:"interview_code"`
	VideoPath     string     `json:"videoPath,omitempty" db:"video_path"`
	IsCompleted   bool       `json:"isCompleted" db:"is_completed"`
	IsAnalyzed    bool       `json:"isAnalyzed" db:"is_analyzed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
}

// IsExpired reports whether the invitation window has passed at now.
func (i *Interview) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// InterviewQuestion is a generated question and, after evaluation, its answer.
type InterviewQuestion struct {
	ID               int64    `json:"id" db:"question_id"`
	InterviewID      int64    `json:"interviewId" db:"interview_id"`
	Text             string   `json:"questionText" db:"question_text"`
	Type             string   `json:"questionType" db:"question_type"`
	ExpectedKeywords string   `json:"expectedKeywords" db:"expected_keywords"`
	Difficulty       string   `json:"difficulty" db:"difficulty"`
	Order            int      `json:"questionOrder" db:"question_order"`
	TimeLimitSeconds int      `json:"timeLimitSeconds" db:"time_limit_seconds"`
	AnswerTranscript string   `json:"answerTranscript,omitempty" db:"answer_transcript"`
	AnswerScore      *float64 `json:"answerScore,omitempty" db:"answer_score"`
}

// Keywords returns the expected keywords lowercased.
func (q *InterviewQuestion) Keywords() []string {
	return SplitList(q.ExpectedKeywords)
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewInterviewCode returns a code like INT-2025-7QXA using crypto/rand.
func NewInterviewCode(now time.Time) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return fmt.Sprintf("INT-%d-%s", now.UTC().Year(), b.String()), nil
}
