package application

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
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
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
}

func newEngine() *gin.Engine {
	r := gin.Default()
	ac := NewApplicationController(testDB)
	r.POST("/jobs/:id/apply", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleStudent), ac.ApplyHandler)
	r.GET("/applications/me", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleStudent), ac.MyApplications)
	r.GET("/admin/applications", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin), ac.ListApplications)
	r.PATCH("/admin/applications/:id/status", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin), ac.SetStatusHandler)
	r.GET("/admin/applications/export", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin), ac.ExportApplications)
	r.POST("/admin/jobs/:id/apply-on-behalf", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin), ac.ApplyOnBehalf)
	return r
}

// clearApplications removes every application for the given job/student pair
// so tests stay independent of each other.
func clearApplications(t *testing.T, jobID uint, studentID interface{}) {
	t.Helper()
	require.NoError(t, testDB.Where("job_id = ? AND student_id = ?", jobID, studentID).
		Delete(&model.Application{}).Error)
}

func TestApply_Success(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	body := gin.H{"answers": gin.H{"why": "I build Go services", "years": 2}}
	rec, resp := testutil.MakeJSONRequest(body, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.ApplicationStatusApplied, resp["status"])
	assert.Equal(t, database.TestStudent1.Name, resp["name"])
	assert.Equal(t, database.TestStudent1.Email, resp["email"])
	assert.Equal(t, database.TestStudent1.Branch, resp["branch"])
	assert.Equal(t, database.TestStudent1.Resumes[0].URL, resp["resume_url"])
}

func TestApply_Duplicate(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	endpoint := fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID)

	rec, _ := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec2, resp2 := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec2.Code)
	assert.Equal(t, "Already applied", resp2["error"])
	assert.Equal(t, true, resp2["alreadyApplied"])
}

func TestApply_DuplicateAfterDeadlinePassed(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Hour)
	job := model.Job{
		EditableJobInfo: model.EditableJobInfo{
			Company:          "LastCall Systems",
			Role:             "Platform Engineer",
			EligibleBranches: pq.StringArray{"CSE"},
			Deadline:         &deadline,
		},
		PostedByID: database.TestAdmin.ID,
	}
	require.NoError(t, testDB.Create(&job).Error)
	defer testDB.Delete(&job)
	defer clearApplications(t, job.ID, database.TestStudent1.ID)

	r := newEngine()
	endpoint := fmt.Sprintf("/jobs/%d/apply", job.ID)

	rec, _ := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Deadline passes after the first apply
	passed := time.Now().Add(-time.Hour)
	require.NoError(t, testDB.Model(&model.Job{}).
		Where("id = ?", job.ID).
		Update("deadline", passed).Error)

	// Re-clicking apply still surfaces the conflict, not an eligibility failure
	rec2, resp2 := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec2.Code, rec2.Body.String())
	assert.Equal(t, "Already applied", resp2["error"])
	assert.Equal(t, true, resp2["alreadyApplied"])
}

func TestApply_ForceReapply(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	endpoint := fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, endpoint, http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appID := uint(resp["id"].(float64))

	// Admin moved it out of the queue
	require.NoError(t, testDB.Model(&model.Application{}).
		Where("id = ?", appID).
		Update("status", model.ApplicationStatusRejected).Error)

	rec2, resp2 := testutil.MakeJSONRequest(gin.H{"force": true, "answers": gin.H{"update": "new portfolio"}}, token, r, endpoint, http.MethodPost)
	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.Equal(t, model.ApplicationStatusApplied, resp2["status"])
	assert.Equal(t, float64(appID), resp2["id"], "forced re-apply must refresh, not duplicate")

	var count int64
	require.NoError(t, testDB.Model(&model.Application{}).
		Where("job_id = ? AND student_id = ?", database.TestJobOpen.ID, database.TestStudent1.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApply_IncompleteProfile(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "incomplete_profile", resp["code"])
	assert.Contains(t, resp["message"], "profile page")
}

func TestApply_DeadlinePassed(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobClosed.ID), http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "deadline_passed", resp["code"])
	assert.Contains(t, resp["message"], "deadline has passed")
}

func TestApply_CGPAIneligible(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobHighCGPA.ID), http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "cgpa_ineligible", resp["code"])
	assert.Contains(t, resp["message"], "Minimum CGPA required is 9. Your CGPA is 8.")
}

func TestApply_BranchIneligible(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	// A posting closed to the student's branch
	job := model.Job{
		EditableJobInfo: model.EditableJobInfo{
			Company:          "MechWorks",
			Role:             "Design Engineer",
			EligibleBranches: pq.StringArray{"ME", "CE"},
		},
		PostedByID: database.TestAdmin.ID,
	}
	require.NoError(t, testDB.Create(&job).Error)
	defer testDB.Delete(&job)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d/apply", job.ID), http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "branch_ineligible", resp["code"])
	assert.Contains(t, resp["message"], "open for ME, CE branches only")
}

func TestApply_JobNotFound(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/jobs/999999/apply", http.MethodPost)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", resp["error"])
}

func TestApply_NestedAnswersRejected(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	body := gin.H{"answers": gin.H{"projects": []string{"a", "b"}}}
	rec, resp := testutil.MakeJSONRequest(body, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "must be a string, number or boolean")
}

func TestMyApplications(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, _ := testutil.MakeJSONRequest(nil, token, r, "/applications/me", http.MethodGet)
	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.Contains(t, rec2.Body.String(), database.TestJobOpen.Company)
	assert.Contains(t, rec2.Body.String(), `"status":"Applied"`)
}

func TestSetStatus(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	adminToken, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	rec, resp := testutil.MakeJSONRequest(nil, studentToken, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)
	appID := uint(resp["id"].(float64))

	rec2, resp2 := testutil.MakeJSONRequest(gin.H{"status": "Shortlisted"}, adminToken, r,
		fmt.Sprintf("/admin/applications/%d/status", appID), http.MethodPatch)
	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.Equal(t, "Shortlisted", resp2["status"])

	rec3, resp3 := testutil.MakeJSONRequest(gin.H{"status": "Pending"}, adminToken, r,
		fmt.Sprintf("/admin/applications/%d/status", appID), http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec3.Code)
	assert.Equal(t, "Invalid status", resp3["error"])

	rec4, resp4 := testutil.MakeJSONRequest(gin.H{"status": "Rejected"}, adminToken, r,
		"/admin/applications/999999/status", http.MethodPatch)
	assert.Equal(t, http.StatusNotFound, rec4.Code)
	assert.Equal(t, "Application not found", resp4["error"])
}

func TestSetStatus_StudentForbidden(t *testing.T) {
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(gin.H{"status": "Shortlisted"}, studentToken, r,
		"/admin/applications/1/status", http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplyOnBehalf(t *testing.T) {
	adminToken, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent2.ID)

	r := newEngine()
	endpoint := fmt.Sprintf("/admin/jobs/%d/apply-on-behalf", database.TestJobOpen.ID)

	// Student 2 has an incomplete profile: the admin override skips eligibility
	rec, resp := testutil.MakeJSONRequest(gin.H{"email": database.TestStudent2.Email}, adminToken, r, endpoint, http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, database.TestStudent2.Name, resp["name"])

	rec2, resp2 := testutil.MakeJSONRequest(gin.H{"email": database.TestStudent2.Email}, adminToken, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec2.Code)
	assert.Equal(t, "Already applied", resp2["error"])

	rec3, resp3 := testutil.MakeJSONRequest(gin.H{"email": "ghost@example.com"}, adminToken, r, endpoint, http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec3.Code)
	assert.Equal(t, "Student not found", resp3["error"])
}

func TestExportCSV(t *testing.T) {
	adminToken, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)
	studentToken, err := auth.GetAccessToken(t, testDB, database.TestStudent1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	clearApplications(t, database.TestJobOpen.ID, database.TestStudent1.ID)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, studentToken, r, fmt.Sprintf("/jobs/%d/apply", database.TestJobOpen.ID), http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, _ := testutil.MakeJSONRequest(nil, adminToken, r, "/admin/applications/export", http.MethodGet)

	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.Contains(t, rec2.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec2.Body.String(), "Name,Email,Company,Role,Branch,CGPA,Status,Applied At")
	assert.Contains(t, rec2.Body.String(), database.TestStudent1.Name)
}

func TestExportXLSX(t *testing.T) {
	adminToken, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken, r, "/admin/applications/export?format=xlsx", http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestExportUnknownFormat(t *testing.T) {
	adminToken, err := auth.GetAccessToken(t, testDB, database.TestAdmin.Email, database.TestSeedPassword)
	require.NoError(t, err)

	r := newEngine()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken, r, "/admin/applications/export?format=pdf", http.MethodGet)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
