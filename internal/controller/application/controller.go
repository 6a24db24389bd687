// Package application provides HTTP handlers for the application workflow:
// applying to jobs, listing applications and admin review.
package application

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/eligibility"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	DB *database.DBinstanceStruct
}

// NewApplicationController creates a new instance of ApplicationController with the provided database connection.
func NewApplicationController(db *database.DBinstanceStruct) *ApplicationController {
	return &ApplicationController{
		DB: db,
	}
}

// ApplicationResponse carries an application together with its job posting.
type ApplicationResponse struct {
	model.Application
	Job model.Job `json:"job"`
}

type applyRequest struct {
	Answers  model.AnswerMap `json:"answers"`
	ResumeID *uint           `json:"resume_id"`
	Force    bool            `json:"force"`
}

// resumeURLFor picks the resume the application snapshot should point at:
// the requested one when given, otherwise the student's first resume.
func resumeURLFor(student *model.User, resumeID *uint) (string, error) {
	if resumeID != nil {
		for _, r := range student.Resumes {
			if r.ID == *resumeID {
				return r.URL, nil
			}
		}
		return "", fmt.Errorf("resume %d not found on your profile", *resumeID)
	}
	if len(student.Resumes) > 0 {
		return student.Resumes[0].URL, nil
	}
	return "", nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ApplyHandler files an application for the calling student.
// @Summary Apply to a job posting
// @Description Eligibility (complete profile, deadline, branch, CGPA) is checked before the application is filed. Passing force=true on an existing application overwrites its snapshot and resets its status instead.
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job to apply to"
// @Param application body applyRequest false "Optional answers, resume selection and force flag"
// @Success 200 {object} model.Application "Re-applied, snapshot refreshed"
// @Success 201 {object} model.Application "Successfully applied"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or answers"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} eligibility.Reason "Not eligible for this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/apply [post]
func (ac *ApplicationController) ApplyHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")
	job := model.Job{}
	if err := ac.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	req := applyRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			})
			return
		}
	}

	if err := req.Answers.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	resumeURL, err := resumeURLFor(&user, req.ResumeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	// Forced re-apply: refresh the snapshot on the existing application and
	// put it back in the review queue. Eligibility is not re-checked, the
	// student already holds a filed application.
	if req.Force {
		existing := model.Application{}
		err := ac.DB.Where("student_id = ? AND job_id = ?", user.ID, job.ID).First(&existing).Error
		switch {
		case err == nil:
			existing.CopySnapshot(&user, resumeURL)
			existing.Status = model.ApplicationStatusApplied
			if req.Answers != nil {
				existing.Answers = req.Answers
			}
			if err := ac.DB.Save(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
					Error: fmt.Sprintf("Failed to update application: %s", err.Error()),
				})
				return
			}
			c.JSON(http.StatusOK, existing)
			return

		case errors.Is(err, gorm.ErrRecordNotFound):
			// Nothing to refresh, fall through to a normal apply

		default:
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to check existing application: %s", err.Error()),
			})
			return
		}
	}

	// An existing application wins over eligibility: re-clicking apply stays
	// a conflict even when the deadline has passed since the first attempt.
	existing := model.Application{}
	switch err := ac.DB.Where("student_id = ? AND job_id = ?", user.ID, job.ID).
		First(&existing).Error; {
	case err == nil:
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Already applied",
			"alreadyApplied": true,
		})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to check existing application: %s", err.Error()),
		})
		return
	}

	if reason := eligibility.Check(&user, &job, time.Now()); reason != nil {
		c.JSON(http.StatusForbidden, reason)
		return
	}

	application := model.Application{
		JobID:     job.ID,
		StudentID: user.ID,
		Status:    model.ApplicationStatusApplied,
		Answers:   req.Answers,
	}
	application.CopySnapshot(&user, resumeURL)

	// The composite unique index still collapses the concurrent-apply race
	if err := ac.DB.Create(&application).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":          "Already applied",
				"alreadyApplied": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create application: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, application)
}

// MyApplications lists the calling student's applications with their jobs.
// @Summary List my applications
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} ApplicationResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/me [get]
func (ac *ApplicationController) MyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var applications []model.Application
	if err := ac.DB.Preload("Job").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch applications: %s", err.Error()),
		})
		return
	}

	resp := []ApplicationResponse{}
	for _, a := range applications {
		resp = append(resp, ApplicationResponse{Application: a, Job: a.Job})
	}

	c.JSON(http.StatusOK, resp)
}

// ListApplications lists applications for admin review, optionally filtered
// by job and status.
// @Summary List applications for review
// @Description Only admin have access to this endpoint
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id query integer false "Only applications for this job"
// @Param status query string false "Only applications in this status (Applied, Shortlisted, Rejected)"
// @Success 200 {array} ApplicationResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid status filter"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/applications [get]
func (ac *ApplicationController) ListApplications(c *gin.Context) {
	rawJobID := c.Query("job_id")
	rawStatus := c.Query("status")

	result := ac.DB.Preload("Job").Order("created_at DESC")

	if rawJobID != "" {
		result = result.Where("job_id = ?", rawJobID)
	}
	if rawStatus != "" {
		if !model.ValidApplicationStatus(rawStatus) {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid status"})
			return
		}
		result = result.Where("status = ?", rawStatus)
	}

	var applications []model.Application
	if err := result.Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch applications: %s", err.Error()),
		})
		return
	}

	resp := []ApplicationResponse{}
	for _, a := range applications {
		resp = append(resp, ApplicationResponse{Application: a, Job: a.Job})
	}

	c.JSON(http.StatusOK, resp)
}

// SetStatusHandler moves an application between review states.
// @Summary Set application status
// @Description Only admin have access to this endpoint. Status must be Applied, Shortlisted or Rejected.
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the application"
// @Param Status body object{status=string} true "New status"
// @Success 200 {object} model.Application "Updated application"
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/applications/{id}/status [patch]
func (ac *ApplicationController) SetStatusHandler(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Status must be provided"})
		return
	}
	if !model.ValidApplicationStatus(body.Status) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid status"})
		return
	}

	application := model.Application{}
	if err := ac.DB.Where("id = ?", id).First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve application: %s", err.Error()),
		})
		return
	}

	if err := ac.DB.Model(&application).Update("status", body.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update application: %s", err.Error()),
		})
		return
	}
	application.Status = body.Status

	c.JSON(http.StatusOK, application)
}

// ApplyOnBehalf files an application for a student identified by email.
// Eligibility is not checked, the admin decides.
// @Summary Apply on behalf of a student
// @Description Only admin have access to this endpoint
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job"
// @Param Student body object{student_id=string,email=string} true "Student id or email to apply for"
// @Success 201 {object} model.Application "Successfully applied"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Job or student not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/jobs/{id}/apply-on-behalf [post]
func (ac *ApplicationController) ApplyOnBehalf(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		StudentID string `json:"student_id"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || (body.StudentID == "" && body.Email == "") {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Student id or email must be provided"})
		return
	}

	job := model.Job{}
	if err := ac.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	student := model.User{}
	query := ac.DB.Preload("Resumes").Where("role = ?", model.RoleStudent)
	if body.StudentID != "" {
		query = query.Where("id = ?", body.StudentID)
	} else {
		query = query.Where("email = ?", body.Email)
	}
	if err := query.First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve student: %s", err.Error()),
		})
		return
	}

	resumeURL, _ := resumeURLFor(&student, nil)

	application := model.Application{
		JobID:     job.ID,
		StudentID: student.ID,
		Status:    model.ApplicationStatusApplied,
	}
	application.CopySnapshot(&student, resumeURL)

	if err := ac.DB.Create(&application).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":          "Already applied",
				"alreadyApplied": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create application: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, application)
}
