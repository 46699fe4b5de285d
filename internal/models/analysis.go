package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// ImprovementCount is the number of improvements the scoring prompt asks for.
const ImprovementCount = 3

type Improvement struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type AnalysisRequest struct {
	ResumeText string `json:"resume_text" validate:"required,notblank,max=100000"`
	TargetRole string `json:"target_role" validate:"required,notblank,max=200"`
}

type AnalysisResult struct {
	Score           int           `json:"score"`
	FeedbackSummary string        `json:"feedback_summary"`
	Improvements    []Improvement `json:"improvements"`
	Warnings        []string      `json:"warnings,omitempty"`
}

// Analysis is a persisted scoring job.
type Analysis struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID         string         `gorm:"type:text;index;not null" json:"-"`
	TargetRole      string         `gorm:"type:text" json:"target_role"`
	ResumeText      string         `gorm:"type:text" json:"-"`
	Status          AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	Score           *int           `json:"score,omitempty"`
	FeedbackSummary *string        `gorm:"type:text" json:"feedback_summary,omitempty"`
	Improvements    []Improvement  `gorm:"type:jsonb;serializer:json" json:"improvements,omitempty"`
	Warnings        []string       `gorm:"type:jsonb;serializer:json" json:"warnings,omitempty"`
	ErrorKind       *string        `gorm:"type:text" json:"error_kind,omitempty"`
	ErrorMessage    *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}

// Result returns the structured result of a completed job.
func (a *Analysis) Result() *AnalysisResult {
	if a.Status != StatusCompleted {
		return nil
	}

	result := &AnalysisResult{
		Improvements: a.Improvements,
		Warnings:     a.Warnings,
	}
	if a.Score != nil {
		result.Score = *a.Score
	}
	if a.FeedbackSummary != nil {
		result.FeedbackSummary = *a.FeedbackSummary
	}
	return result
}

// AnalysisView is what one user's scoring screen shows: the last completed
// result, whether a newer request is still pending, and the last failure.
type AnalysisView struct {
	Current   *Analysis  `json:"current,omitempty"`
	PendingID *uuid.UUID `json:"pending_id,omitempty"`
	Stale     bool       `json:"stale"`
	LastError string     `json:"last_error,omitempty"`
}
