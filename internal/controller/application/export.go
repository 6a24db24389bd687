package application

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx/v3"

	"github.com/Pratyush-PT/EASY-Apply/internal/eligibility"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

var exportHeaders = []string{"Name", "Email", "Company", "Role", "Branch", "CGPA", "Status", "Applied At"}

func exportRow(a *model.Application) []string {
	return []string{
		a.Name,
		a.Email,
		a.Job.Company,
		a.Job.Role,
		a.Branch,
		eligibility.FormatCGPA(a.CGPA),
		a.Status,
		a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ExportApplications streams applications as a CSV or XLSX attachment.
// @Summary Export applications
// @Description Only admin have access to this endpoint. Format defaults to csv.
// @Tags Admin
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param format query string false "Export format: csv or xlsx" default(csv)
// @Param job_id query integer false "Only applications for this job"
// @Param status query string false "Only applications in this status"
// @Success 200 {string} binary "Exported file"
// @Failure 400 {object} utilities.ErrorResponse "Unknown format or status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/applications/export [get]
func (ac *ApplicationController) ExportApplications(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unknown export format: %s", format),
		})
		return
	}

	rawJobID := c.Query("job_id")
	rawStatus := c.Query("status")

	result := ac.DB.Preload("Job").Order("created_at ASC")
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

	filename := fmt.Sprintf("applications_%s.%s", time.Now().Format("20060102_150405"), format)

	if format == "xlsx" {
		ac.writeXLSX(c, applications, filename)
		return
	}
	ac.writeCSV(c, applications, filename)
}

func (ac *ApplicationController) writeCSV(c *gin.Context, applications []model.Application, filename string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(exportHeaders); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to write export"})
		return
	}
	for i := range applications {
		if err := w.Write(exportRow(&applications[i])); err != nil {
			c.Abort()
			return
		}
	}
	w.Flush()

	c.Status(http.StatusOK)
}

func (ac *ApplicationController) writeXLSX(c *gin.Context, applications []model.Application, filename string) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Applications")
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to create sheet"})
		return
	}

	headerRow := sheet.AddRow()
	for _, header := range exportHeaders {
		headerRow.AddCell().Value = header
	}

	for i := range applications {
		row := sheet.AddRow()
		for _, cell := range exportRow(&applications[i]) {
			row.AddCell().Value = cell
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := file.Write(c.Writer); err != nil {
		c.Abort()
		return
	}

	c.Status(http.StatusOK)
}
