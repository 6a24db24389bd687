// Package admin provides HTTP handlers for admin-only portal operations.
package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// AdminController handles admin dashboard and student listing endpoints
type AdminController struct {
	DB *database.DBinstanceStruct
}

// NewAdminController creates a new instance of AdminController
func NewAdminController(db *database.DBinstanceStruct) *AdminController {
	return &AdminController{
		DB: db,
	}
}

// DashboardResponse aggregates portal-wide counts and recent activity.
type DashboardResponse struct {
	TotalJobs            int64 `json:"totalJobs"`
	TotalStudents        int64 `json:"totalStudents"`
	TotalApplications    int64 `json:"totalApplications"`
	InterestedNotApplied int64 `json:"interestedNotApplied"`

	RecentJobs         []model.Job         `json:"recentJobs"`
	RecentApplications []model.Application `json:"recentApplications"`
}

// Dashboard returns portal totals, recent activity and the count of students
// who marked interest in a job but never applied to it.
// @Summary Admin dashboard statistics
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/dashboard [get]
func (ac *AdminController) Dashboard(c *gin.Context) {
	var resp DashboardResponse

	counts := []func() error{
		func() error {
			return ac.DB.Model(&model.Job{}).Count(&resp.TotalJobs).Error
		},
		func() error {
			return ac.DB.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&resp.TotalStudents).Error
		},
		func() error {
			return ac.DB.Model(&model.Application{}).Count(&resp.TotalApplications).Error
		},
		func() error {
			// Interests with no matching application for the same (job, student)
			return ac.DB.Model(&model.Interest{}).
				Where("NOT EXISTS (SELECT 1 FROM applications WHERE applications.job_id = interests.job_id AND applications.student_id = interests.student_id)").
				Count(&resp.InterestedNotApplied).Error
		},
	}
	for _, count := range counts {
		if err := count(); err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Database error: %s", err.Error()),
			})
			return
		}
	}

	if err := ac.DB.Order("created_at DESC").Limit(5).Find(&resp.RecentJobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}
	if err := ac.DB.Preload("Job").Order("created_at DESC").Limit(5).Find(&resp.RecentApplications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStudents lists student accounts, optionally filtered by branch.
// @Summary Get students based on given query
// @Description Only admin can access this endpoint
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param branch query string false "Only students in this branch" example(CSE)
// @Success 200 {array} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/students [get]
func (ac *AdminController) GetStudents(c *gin.Context) {
	rawBranch := c.Query("branch")

	result := ac.DB.Preload("Resumes").Where("role = ?", model.RoleStudent)
	if rawBranch != "" {
		result = result.Where("branch = ?", rawBranch)
	}

	var students []model.User
	if err := result.Order("name ASC").Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, students)
}
