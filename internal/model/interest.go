package model

import (
	"time"

	"github.com/google/uuid"
)

// Interest marks that a student wants deadline reminders for a job.
// Created and deleted only by the student; never by the system.
type Interest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// One interest per (job, student) pair, enforced at the store level
	JobID uint `gorm:"not null;uniqueIndex:idx_interests_job_student" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_interests_job_student" json:"student_id"`
	Student   User      `gorm:"foreignKey:StudentID;references:ID" json:"-"`

	// Notified flips to true once a deadline reminder has been surfaced,
	// suppressing repeats on later polls
	Notified bool `gorm:"default:false" json:"notified"`

	CreatedAt time.Time `json:"created_at"`
}

// Notification is what a deadline check emits for one qualifying interest.
type Notification struct {
	JobID    uint      `json:"jobId"`
	Company  string    `json:"company"`
	Role     string    `json:"role"`
	Deadline time.Time `json:"deadline"`
}
