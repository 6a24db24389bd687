package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EditableJobInfo holds the job fields an admin may set on create or edit.
type EditableJobInfo struct {
	Company          string         `json:"company"`
	Role             string         `json:"role"`
	Description      string         `json:"description"`
	EligibleBranches pq.StringArray `gorm:"type:text[]" json:"eligible_branches"`
	MinCGPA          *float64       `json:"min_cgpa,omitempty"`
	Deadline         *time.Time     `gorm:"type:timestamp" json:"deadline,omitempty"`
	JDFileID         *int           `json:"jd_file_id,omitempty"`
}

// Job is gorm model for a job posting created by an admin
type Job struct {
	ID uint `gorm:"primaryKey;autoIncrement;->" json:"id"`

	EditableJobInfo `gorm:"embedded"`

	JDFile File `gorm:"foreignKey:JDFileID;references:ID" json:"-"`

	// PostedByID references the admin User that created the posting
	PostedByID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"posted_by"`
	PostedBy   User      `gorm:"foreignKey:PostedByID;references:ID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobResponse decorates a job with the calling student's standing on it.
type JobResponse struct {
	Job
	Applied    bool `json:"applied"`
	Interested bool `json:"interested"`
}
