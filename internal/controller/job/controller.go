// Package job provides HTTP handlers for job posting operations.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// JobController handles job posting related endpoints
type JobController struct {
	DB *database.DBinstanceStruct
}

// NewJobController creates a new instance of JobController
func NewJobController(db *database.DBinstanceStruct) *JobController {
	return &JobController{
		DB: db,
	}
}

// validateJobInfo rejects unknown branch codes and out-of-range CGPA cutoffs.
func validateJobInfo(info *model.EditableJobInfo) error {
	for _, b := range info.EligibleBranches {
		if !utilities.Contains(model.Branches, b) {
			return fmt.Errorf("unknown branch code: %s", b)
		}
	}
	if info.MinCGPA != nil && (*info.MinCGPA < 0 || *info.MinCGPA > 10) {
		return fmt.Errorf("minimum CGPA must be between 0 and 10")
	}
	return nil
}

// CreateJobHandler handles the creation of a new job posting by an admin.
// @Summary Create job posting based on given json structure
// @Description Only admin have access to this endpoint
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Job body model.EditableJobInfo true "Input job information"
// @Success 201 {object} model.Job "Successfully create job posting"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid job struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/jobs [post]
func (jc *JobController) CreateJobHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job := model.Job{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&job.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if job.Company == "" || job.Role == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Company and role must be provided",
		})
		return
	}
	if err := validateJobInfo(&job.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job.PostedByID = user.ID
	if err := jc.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create job: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// standingSets loads the ids of jobs the student has applied to or marked
// interest in, for decorating job responses.
func (jc *JobController) standingSets(user *model.User) (applied, interested map[uint]bool, err error) {
	applied = map[uint]bool{}
	interested = map[uint]bool{}

	var appliedIDs []uint
	if err := jc.DB.Model(&model.Application{}).
		Where("student_id = ?", user.ID).
		Pluck("job_id", &appliedIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range appliedIDs {
		applied[id] = true
	}

	var interestedIDs []uint
	if err := jc.DB.Model(&model.Interest{}).
		Where("student_id = ?", user.ID).
		Pluck("job_id", &interestedIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range interestedIDs {
		interested[id] = true
	}

	return applied, interested, nil
}

// GetJobs fetches job postings matching the query and decorates each with the
// calling student's applied and interested flags.
// @Summary Get job postings based on query
// @Description Every query is optional
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param search query string false "Search company and role with substring matching, case insensitive"
// @Param branch query string false "Only jobs open to this branch (or open to all)"
// @Param open query boolean false "Only jobs whose deadline has not passed if true"
// @Param desc query boolean false "Sort by posting time descending if true, otherwise ascending"
// @Success 200 {array} model.JobResponse "Return job posting(s)"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (jc *JobController) GetJobs(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	rawSearch := c.Query("search")
	rawBranch := c.Query("branch")
	rawOpen := c.Query("open")
	rawDesc := c.Query("desc")

	result := jc.DB.Model(&model.Job{})

	if rawSearch != "" {
		result = result.Where("company ILIKE ? OR role ILIKE ?", "%"+rawSearch+"%", "%"+rawSearch+"%")
	}

	if rawBranch != "" {
		result = result.Where("? = ANY(eligible_branches) OR cardinality(eligible_branches) = 0 OR eligible_branches IS NULL", rawBranch)
	}

	if strings.ToLower(rawOpen) == "true" {
		result = result.Where("deadline > ? OR deadline IS NULL", time.Now())
	}

	var rawJobs []model.Job
	if err := result.Order(clause.OrderByColumn{
		Column: clause.Column{Name: "created_at"},
		Desc:   strings.ToLower(rawDesc) == "true",
	}).Find(&rawJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch jobs: ", err.Error()),
		})
		return
	}

	applied, interested, err := jc.standingSets(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch application standing: ", err.Error()),
		})
		return
	}

	jobs := []model.JobResponse{}
	for _, rawJob := range rawJobs {
		jobs = append(jobs, model.JobResponse{
			Job:        rawJob,
			Applied:    applied[rawJob.ID],
			Interested: interested[rawJob.ID],
		})
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJobByID fetches a job posting by its ID from the database
// and returns it as a JSON response.
// @Summary Get job posting by ID
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Success 200 {object} model.JobResponse "Return the job with the specified ID"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [get]
func (jc *JobController) GetJobByID(c *gin.Context) {
	id := c.Param("id")

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job := model.Job{}
	if err := jc.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	var appliedCount, interestedCount int64
	if err := jc.DB.Model(&model.Application{}).
		Where("student_id = ? AND job_id = ?", user.ID, job.ID).
		Count(&appliedCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve application standing: %s", err.Error()),
		})
		return
	}
	if err := jc.DB.Model(&model.Interest{}).
		Where("student_id = ? AND job_id = ?", user.ID, job.ID).
		Count(&interestedCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve interest standing: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, model.JobResponse{
		Job:        job,
		Applied:    appliedCount > 0,
		Interested: interestedCount > 0,
	})
}

// EditJobHandler allows an admin to update a job posting.
// @Summary Edit job posting based on given json structure
// @Description Only admin have access to this endpoint
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Param Job body model.EditableJobInfo true "Input job information"
// @Success 200 {object} model.Job "Successfully update job posting"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid job struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/jobs/{id} [patch]
func (jc *JobController) EditJobHandler(c *gin.Context) {
	id := c.Param("id")

	job := model.Job{}
	if err := jc.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	// Bind incoming JSON to a temporary struct to avoid overwriting ownership fields
	updated := model.Job{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&updated.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}
	if err := validateJobInfo(&updated.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	if err := jc.DB.Model(&job).Updates(updated).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job: %s", err.Error()),
		})
		return
	}

	// Reload the job to return the latest data
	if err := jc.DB.Where("id = ?", job.ID).First(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// DeleteJobHandler allows an admin to delete a job posting. Applications and
// interests on the job go with it.
// @Summary Delete given job ID
// @Description Only admin have access to this endpoint
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Success 200 {object} utilities.MessageResponse "Successfully delete job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/jobs/{id} [delete]
func (jc *JobController) DeleteJobHandler(c *gin.Context) {
	id := c.Param("id")

	job := model.Job{}
	if err := jc.DB.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	// Applications and interests cascade at the store level
	if err := jc.DB.Delete(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job deleted"})
}
