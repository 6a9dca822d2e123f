// Package model defines the persisted data models for the application.
// All models use GORM for ORM operations with SQLite storage.
package model

import (
	"time"

	"gorm.io/gorm"
)

// RunStatus represents the lifecycle state of a review run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusNoChanges RunStatus = "no_changes"
)

// ReviewRun is the history record of one review pipeline run. One row per
// triggering event; updated in place as the run finishes.
type ReviewRun struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// RunID is the external identifier used in logs and traces
	RunID string `gorm:"uniqueIndex;size:32" json:"run_id"`

	ProjectID   int64  `gorm:"index" json:"project_id"`
	ProjectPath string `gorm:"size:512" json:"project_path"`
	MRIID       int64  `gorm:"index" json:"mr_iid"`
	MRTitle     string `gorm:"size:1024" json:"mr_title"`
	MRURL       string `gorm:"size:1024" json:"mr_url"`

	SourceBranch string `gorm:"size:255" json:"source_branch"`
	TargetBranch string `gorm:"size:255" json:"target_branch"`
	HeadSHA      string `gorm:"size:64" json:"head_sha"`

	AgentName string    `gorm:"size:64" json:"agent_name"`
	Status    RunStatus `gorm:"size:20;index" json:"status"`

	CommentsPosted int    `json:"comments_posted"`
	CommentsFailed int    `json:"comments_failed"`
	Error          string `gorm:"type:text" json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
}

// TableName returns the table name for ReviewRun
func (ReviewRun) TableName() string {
	return "review_runs"
}

// AllModels returns all models for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&ReviewRun{},
	}
}
