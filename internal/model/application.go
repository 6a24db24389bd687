package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ApplicationStatusApplied is set at creation and at forced re-apply
	ApplicationStatusApplied = "Applied"
	// ApplicationStatusShortlisted indicates an admin shortlisted the candidate
	ApplicationStatusShortlisted = "Shortlisted"
	// ApplicationStatusRejected indicates an admin rejected the candidate
	ApplicationStatusRejected = "Rejected"
)

// ValidApplicationStatus reports whether s is one of the three allowed states.
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusShortlisted, ApplicationStatusRejected:
		return true
	}
	return false
}

// AnswerMap stores supplementary application answers as a jsonb column.
// Values are restricted to scalars (string, number, bool).
type AnswerMap map[string]interface{}

// Validate rejects nested or non-scalar answer values.
func (m AnswerMap) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case string, float64, bool, nil:
		default:
			return fmt.Errorf("answer %q must be a string, number or boolean", k)
		}
	}
	return nil
}

// Value implements driver.Valuer for jsonb storage.
func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for jsonb storage.
func (m *AnswerMap) Scan(src interface{}) error {
	if src == nil {
		*m = AnswerMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnswerMap", src)
	}
	return json.Unmarshal(data, m)
}

// Application represents a job application record. Profile fields are a
// snapshot taken at apply time, so later profile edits do not rewrite what a
// student applied with.
type Application struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// JobID and StudentID carry a composite unique index, so a second insert
	// for the same pair fails at the store instead of racing the existence
	// check in the handler.
	JobID uint `gorm:"not null;uniqueIndex:idx_applications_job_student" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_job_student" json:"student_id"`
	Student   User      `gorm:"foreignKey:StudentID;references:ID" json:"-"`

	// Snapshot fields copied from the student's profile
	Name      string  `gorm:"type:text" json:"name"`
	Email     string  `gorm:"type:text" json:"email"`
	Branch    string  `gorm:"type:text" json:"branch"`
	CGPA      float64 `json:"cgpa"`
	Contact   string  `gorm:"type:text" json:"contact"`
	ResumeURL string  `gorm:"type:text" json:"resume_url"`

	Status  string    `gorm:"type:text;default:'Applied'" json:"status"`
	Answers AnswerMap `gorm:"type:jsonb" json:"answers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CopySnapshot overwrites the snapshot fields from the student's current
// profile. resumeURL may be empty when the student has no resume on record
// (admin-filed applications).
func (a *Application) CopySnapshot(student *User, resumeURL string) {
	a.Name = student.Name
	a.Email = student.Email
	a.Branch = student.Branch
	a.CGPA = student.CGPA
	a.Contact = student.Contact
	if resumeURL != "" {
		a.ResumeURL = resumeURL
	}
}
