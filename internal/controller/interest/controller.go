// Package interest provides HTTP handlers for marking interest in jobs and
// the deadline reminder check built on top of it.
package interest

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

// reminderWindow is how far ahead of a deadline the notification check looks.
const reminderWindow = 24 * time.Hour

// InterestController handles interest related endpoints
type InterestController struct {
	DB *database.DBinstanceStruct
}

// NewInterestController creates a new instance of InterestController
func NewInterestController(db *database.DBinstanceStruct) *InterestController {
	return &InterestController{
		DB: db,
	}
}

// InterestResponse carries an interest together with its job posting.
type InterestResponse struct {
	model.Interest
	Job model.Job `json:"job"`
}

// MarkInterest records that the student wants reminders for a job. Marking
// twice returns the existing record untouched, even when the job has closed
// in the meantime.
// @Summary Mark interest in a job
// @Description The same eligibility rules as applying are checked first.
// @Tags Interest
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Interest body object{job_id=integer} true "Job to mark interest in"
// @Success 200 {object} object{message=string,interest=model.Interest} "Interest already recorded"
// @Success 201 {object} model.Interest "Interest recorded"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} eligibility.Reason "Not eligible for this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /interests [post]
func (ic *InterestController) MarkInterest(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var body struct {
		JobID uint `json:"job_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Job id must be provided"})
		return
	}

	job := model.Job{}
	if err := ic.DB.Where("id = ?", body.JobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	// An existing interest short-circuits everything else: the record comes
	// back untouched, so a deadline passing later never breaks repeat marks.
	existing := model.Interest{}
	switch err := ic.DB.Where("student_id = ? AND job_id = ?", user.ID, job.ID).
		First(&existing).Error; {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message":  "Already marked as interested",
			"interest": existing,
		})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to check existing interest: %s", err.Error()),
		})
		return
	}

	if reason := eligibility.Check(&user, &job, time.Now()); reason != nil {
		c.JSON(http.StatusForbidden, reason)
		return
	}

	interest := model.Interest{
		JobID:     job.ID,
		StudentID: user.ID,
	}
	if err := ic.DB.Create(&interest).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race to a concurrent mark, hand back the winner's row
			if err := ic.DB.Where("student_id = ? AND job_id = ?", user.ID, job.ID).
				First(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
					Error: fmt.Sprintf("Failed to retrieve interest: %s", err.Error()),
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"message":  "Already marked as interested",
				"interest": existing,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to record interest: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, interest)
}

// ListInterests lists the calling student's interests with their jobs.
// @Summary List my interests
// @Tags Interest
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} InterestResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /interests [get]
func (ic *InterestController) ListInterests(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var interests []model.Interest
	if err := ic.DB.Preload("Job").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&interests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch interests: %s", err.Error()),
		})
		return
	}

	resp := []InterestResponse{}
	for _, i := range interests {
		resp = append(resp, InterestResponse{Interest: i, Job: i.Job})
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveInterest deletes the student's interest in a job. Removing an
// interest that does not exist is a no-op.
// @Summary Remove interest in a job
// @Tags Interest
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param jobId path integer true "ID of the job"
// @Success 200 {object} utilities.MessageResponse "Interest removed"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /interests/{jobId} [delete]
func (ic *InterestController) RemoveInterest(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	jobID := c.Param("jobId")
	if jobID == "" {
		jobID = c.Query("job_id")
	}
	if jobID == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Job id must be provided"})
		return
	}

	if err := ic.DB.Where("student_id = ? AND job_id = ?", user.ID, jobID).
		Delete(&model.Interest{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to remove interest: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Interest removed"})
}

// CheckNotifications surfaces deadline reminders: interests whose job closes
// within the next 24 hours, where the student has not applied and has not
// been reminded before. Surfaced interests are marked notified so a later
// poll stays quiet.
// @Summary Check for deadline reminders
// @Tags Interest
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} object{notifications=[]model.Notification}
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/check [get]
func (ic *InterestController) CheckNotifications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	now := time.Now()
	cutoff := now.Add(reminderWindow)

	var interests []model.Interest
	if err := ic.DB.Preload("Job").
		Joins("JOIN jobs ON jobs.id = interests.job_id").
		Where("interests.student_id = ? AND interests.notified = ?", user.ID, false).
		Where("jobs.deadline IS NOT NULL AND jobs.deadline >= ? AND jobs.deadline <= ?", now, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM applications WHERE applications.job_id = interests.job_id AND applications.student_id = interests.student_id)").
		Find(&interests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to check notifications: %s", err.Error()),
		})
		return
	}

	notifications := []model.Notification{}
	for _, interest := range interests {
		if err := ic.DB.Model(&model.Interest{}).
			Where("id = ?", interest.ID).
			Update("notified", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to mark notification: %s", err.Error()),
			})
			return
		}
		notifications = append(notifications, model.Notification{
			JobID:    interest.JobID,
			Company:  interest.Job.Company,
			Role:     interest.Job.Role,
			Deadline: *interest.Job.Deadline,
		})
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
