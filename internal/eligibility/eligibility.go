// Package eligibility implements the placement eligibility predicate shared
// by the apply and mark-interest operations. It is pure: callers load the
// student and job and pass the evaluation time explicitly.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// Code identifies why a student is not eligible.
type Code string

const (
	// CodeIncompleteProfile means the student is missing resume, branch,
	// CGPA or contact. Recoverable: the caller should redirect to the
	// profile page.
	CodeIncompleteProfile Code = "incomplete_profile"
	// CodeDeadlinePassed means the job stopped accepting applications.
	CodeDeadlinePassed Code = "deadline_passed"
	// CodeBranchIneligible means the student's branch is not in the job's
	// allow-list.
	CodeBranchIneligible Code = "branch_ineligible"
	// CodeCGPAIneligible means the student's CGPA is below the job's minimum.
	CodeCGPAIneligible Code = "cgpa_ineligible"
)

// Reason is a structured eligibility failure with a user-facing message.
// A nil *Reason means eligible.
type Reason struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Check evaluates the four eligibility rules in fixed order and returns the
// first failure, or nil when the student may proceed. The same predicate
// guards both applying and marking interest.
func Check(student *model.User, job *model.Job, now time.Time) *Reason {
	if !student.HasCompleteProfile() {
		return &Reason{
			Code:    CodeIncompleteProfile,
			Message: "Please fill all the details in your profile page (Resume, Branch, CGPA, Contact) before applying.",
		}
	}

	if job.Deadline != nil && job.Deadline.Before(now) {
		return &Reason{
			Code:    CodeDeadlinePassed,
			Message: "You are not eligible: Application deadline has passed.",
		}
	}

	if len(job.EligibleBranches) > 0 && !utilities.Contains(job.EligibleBranches, student.Branch) {
		return &Reason{
			Code: CodeBranchIneligible,
			Message: fmt.Sprintf(
				"You are not eligible: This job is open for %s branches only.",
				strings.Join(job.EligibleBranches, ", "),
			),
		}
	}

	// Strict less-than: a CGPA exactly at the minimum passes
	if job.MinCGPA != nil && student.CGPA < *job.MinCGPA {
		return &Reason{
			Code: CodeCGPAIneligible,
			Message: fmt.Sprintf(
				"You are not eligible: Minimum CGPA required is %s. Your CGPA is %s.",
				FormatCGPA(*job.MinCGPA),
				FormatCGPA(student.CGPA),
			),
		}
	}

	return nil
}

// FormatCGPA renders a CGPA without trailing zeros ("9", "8.5").
func FormatCGPA(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
