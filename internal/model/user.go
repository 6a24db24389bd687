// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants for User.Role
var (
	// RoleStudent is the default role assigned at signup
	RoleStudent = "student"
	// RoleAdmin is assigned only through the bootstrap tool or admin setup
	RoleAdmin = "admin"
)

// Branch codes accepted in User.Branch and Job.EligibleBranches
var Branches = []string{"CSE", "ECE", "EE", "EIE", "CE", "ME"}

// EditableUserInfo holds the profile fields a student may overwrite themselves.
// Eligibility decisions read Branch, CGPA and Contact from here.
type EditableUserInfo struct {
	Name    string  `json:"name"`
	Branch  string  `json:"branch"`
	CGPA    float64 `json:"cgpa"`
	Contact string  `json:"contact"`
}

// User represents a student or admin account
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Email    string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"type:text" json:"-"`
	Role     string    `gorm:"type:text;default:'student'" json:"role"`
	Verified bool      `gorm:"default:false" json:"verified"`

	// One-time-password state for signup verification and password reset.
	// Cleared as soon as the code is consumed.
	OTP       *string    `gorm:"type:text" json:"-"`
	OTPExpiry *time.Time `gorm:"type:timestamp" json:"-"`

	EditableUserInfo `gorm:"embedded"`

	Resumes []Resume `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"resumes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resume is a named resume entry on a student profile. The PDF itself lives
// in a File row; URL is the download path recorded at upload time.
type Resume struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`

	Name string `gorm:"type:text;not null" json:"name"`
	URL  string `gorm:"type:text;not null" json:"url"`

	FileID int  `gorm:"not null" json:"file_id"`
	File   File `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// HasCompleteProfile reports whether the student filled everything the
// placement workflow needs: at least one resume, branch, CGPA and contact.
func (u *User) HasCompleteProfile() bool {
	return len(u.Resumes) > 0 && u.Branch != "" && u.CGPA > 0 && u.Contact != ""
}
