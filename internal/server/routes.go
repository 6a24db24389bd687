package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Pratyush-PT/EASY-Apply/internal/auth"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/admin"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/application"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/file"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/interest"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/job"
	"github.com/Pratyush-PT/EASY-Apply/internal/controller/profile"
	"github.com/Pratyush-PT/EASY-Apply/internal/middleware"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()
	r.Use(middleware.SafeHeader())

	allowOriginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrigins := strings.Split(allowOriginsStr, ",")

	storage, err := file.StorageFromEnv()
	if err != nil {
		// Keep serving with database-backed files
		storage = nil
	}

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Mail)
	jobController := job.NewJobController(s.DB)
	applicationController := application.NewApplicationController(s.DB)
	interestController := interest.NewInterestController(s.DB)
	profileController := profile.NewProfileController(s.DB)
	fileController := file.NewFileController(s.DB, storage)
	adminController := admin.NewAdminController(s.DB)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.Use(middleware.EnvRateLimitMiddleware())
			authRoute.POST("signup", lAuth.SignupHandler)
			authRoute.POST("verify-otp", lAuth.VerifyOTPHandler)
			authRoute.POST("login", lAuth.LoginHandler)
			authRoute.POST("forgot-password", lAuth.ForgotPasswordHandler)
			authRoute.POST("reset-password", lAuth.ResetPasswordHandler)
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(s.DB))

			fileRoute := needAuth.Group("/file")
			{
				fileRoute.GET(":id", fileController.GetFile)
			}

			jobRoute := needAuth.Group("/jobs")
			{
				jobRoute.GET("", jobController.GetJobs)
				jobRoute.GET(":id", jobController.GetJobByID)
				jobRoute.POST(":id/apply", middleware.CheckRole(model.RoleStudent), applicationController.ApplyHandler)
			}

			needStudent := needAuth.Group("")
			{
				needStudent.Use(middleware.CheckRole(model.RoleStudent))
				needStudent.GET("applications/me", applicationController.MyApplications)

				interestRoute := needStudent.Group("/interests")
				{
					interestRoute.POST("", interestController.MarkInterest)
					interestRoute.GET("", interestController.ListInterests)
					interestRoute.DELETE("", interestController.RemoveInterest)
					interestRoute.DELETE(":jobId", interestController.RemoveInterest)
				}

				needStudent.GET("notifications/check", interestController.CheckNotifications)

				profileRoute := needStudent.Group("/profile")
				{
					profileRoute.GET("me", profileController.GetMyProfile)
					profileRoute.PATCH("me", profileController.EditMyProfile)
					profileRoute.POST("resume", middleware.SizeLimit(5<<20), fileController.UploadResume)
					profileRoute.DELETE("resume/:id", fileController.DeleteResume)
				}
			}

			needAdmin := needAuth.Group("/admin")
			{
				needAdmin.Use(middleware.CheckRole(model.RoleAdmin))
				needAdmin.POST("jobs", jobController.CreateJobHandler)
				needAdmin.PATCH("jobs/:id", jobController.EditJobHandler)
				needAdmin.DELETE("jobs/:id", jobController.DeleteJobHandler)
				needAdmin.POST("jobs/:id/upload-jd", middleware.SizeLimit(10<<20), fileController.UploadJD)
				needAdmin.POST("jobs/:id/apply-on-behalf", applicationController.ApplyOnBehalf)

				needAdmin.GET("applications", applicationController.ListApplications)
				needAdmin.PATCH("applications/:id/status", applicationController.SetStatusHandler)
				needAdmin.GET("applications/export", applicationController.ExportApplications)

				needAdmin.GET("dashboard", adminController.Dashboard)
				needAdmin.GET("students", adminController.GetStudents)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Hello World"})
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
