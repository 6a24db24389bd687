package job

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Pratyush-PT/EASY-Apply/internal/auth"
	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/middleware"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
}

func newEngine() *gin.Engine {
	r := gin.Default()
	jc := NewJobController(testDB)
	r.GET("/jobs", middleware.RequireAuth(testDB), jc.GetJobs)
	r.GET("/jobs/:id", middleware.RequireAuth(testDB), jc.GetJobByID)
	admin := r.Group("/admin", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin))
	admin.POST("/jobs", jc.CreateJobHandler)
	admin.PATCH("/jobs/:id", jc.EditJobHandler)
	admin.DELETE("/jobs/:id", jc.DeleteJobHandler)
	return r
}

func TestCreateJob(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	body := gin.H{
		"company":           "CloudPeak",
		"role":              "SRE",
		"description":       "Keep the lights on.",
		"eligible_branches": []string{"CSE", "ECE"},
		"min_cgpa":          7.0,
	}
	rec, resp := testutil.MakeJSONRequest(body, token, r, "/admin/jobs", http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "CloudPeak", resp["company"])
	assert.Equal(t, database.TestAdmin.ID.String(), resp["posted_by"])

	testDB.Where("id = ?", resp["id"]).Delete(&model.Job{})
}

func TestCreateJob_MissingCompany(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"role": "SRE"}, token, r, "/admin/jobs", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Company and role must be provided", resp["error"])
}

func TestCreateJob_UnknownBranch(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	body := gin.H{"company": "X", "role": "Y", "eligible_branches": []string{"XYZ"}}
	rec, resp := testutil.MakeJSONRequest(body, token, r, "/admin/jobs", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown branch code: XYZ", resp["error"])
}

func TestCreateJob_CGPAOutOfRange(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	body := gin.H{"company": "X", "role": "Y", "min_cgpa": 11.0}
	rec, resp := testutil.MakeJSONRequest(body, token, r, "/admin/jobs", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "minimum CGPA must be between 0 and 10", resp["error"])
}

func TestCreateJob_UnknownField(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	body := gin.H{"company": "X", "role": "Y", "salary": 100}
	rec, _ := testutil.MakeJSONRequest(body, token, r, "/admin/jobs", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_StudentForbidden(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"company": "X", "role": "Y"}, token, r, "/admin/jobs", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User doesn't have permission to access", resp["error"])
}

func TestGetJobs(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/jobs", http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, database.TestJobOpen.Company)
	assert.Contains(t, body, database.TestJobHighCGPA.Company)
	assert.Contains(t, body, database.TestJobClosed.Company)
}

func TestGetJobs_Search(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/jobs?search=technova", http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), database.TestJobOpen.Company)
	assert.NotContains(t, rec.Body.String(), database.TestJobHighCGPA.Company)
}

func TestGetJobs_OpenOnly(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/jobs?open=true", http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), database.TestJobOpen.Company)
	assert.NotContains(t, rec.Body.String(), database.TestJobClosed.Company)
}

func TestGetJobs_BranchFilter(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	// TestJobOpen allows CSE/ECE only, so an EE query should not surface it
	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/jobs?branch=EE", http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), database.TestJobOpen.Company)
	assert.Contains(t, rec.Body.String(), database.TestJobHighCGPA.Company)
}

func TestGetJobs_StandingFlags(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	require.NoError(t, testDB.Where("student_id = ?", database.TestStudent1.ID).Delete(&model.Application{}).Error)
	application := model.Application{
		JobID:     database.TestJobOpen.ID,
		StudentID: database.TestStudent1.ID,
		Status:    model.ApplicationStatusApplied,
	}
	require.NoError(t, testDB.Create(&application).Error)
	defer testDB.Delete(&application)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d", database.TestJobOpen.ID), http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["applied"])
	assert.Equal(t, false, resp["interested"])
}

func TestGetJobByID_NotFound(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/jobs/999999", http.MethodGet)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", resp["error"])
}

func TestEditJob(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"company": "EditMe", "role": "Temp"}, token, r, "/admin/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	jobID := resp["id"]
	defer testDB.Where("id = ?", jobID).Delete(&model.Job{})

	endpoint := fmt.Sprintf("/admin/jobs/%v", jobID)
	rec2, resp2 := testutil.MakeJSONRequest(gin.H{"description": "Updated description"}, token, r, endpoint, http.MethodPatch)

	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.Equal(t, "Updated description", resp2["description"])
	assert.Equal(t, "EditMe", resp2["company"], "untouched fields survive a patch")
}

func TestEditJob_NotFound(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"description": "x"}, token, r, "/admin/jobs/999999", http.MethodPatch)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", resp["error"])
}

func TestDeleteJob(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(gin.H{"company": "DeleteMe", "role": "Temp"}, token, r, "/admin/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	endpoint := fmt.Sprintf("/admin/jobs/%v", resp["id"])
	rec2, resp2 := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodDelete)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "Job deleted", resp2["message"])

	rec3, _ := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodDelete)
	assert.Equal(t, http.StatusNotFound, rec3.Code)
}
