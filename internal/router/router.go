package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/handler"
	"github.com/stemsi/exstem-lms/internal/middleware"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/observability"
	"github.com/stemsi/exstem-lms/internal/response"
	"github.com/stemsi/exstem-lms/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Student  *handler.StudentHandler
	Exam     *handler.ExamHandler
	Schedule *handler.ScheduleHandler
	Grading  *handler.GradingHandler
	Admin    *handler.AdminHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable rate limiting.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Observability(log))
	router.Use(middleware.Brotli())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", observability.MetricsHandler())

	revoked := middleware.RejectRevokedTokens(authService, log)

	// ─── 1. Auth Group (any token type) ────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.RequireJWT(authService), revoked)
	{
		auth.GET("/me", handlers.Auth.Me)
		auth.POST("/logout", handlers.Auth.Logout)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService), revoked, middleware.NoStore())
	{
		studentAPI.GET("/schedules", handlers.Student.ListSchedules)

		studentAPI.POST("/exams/:exam_id/attempts", handlers.Student.StartAttempt)
		studentAPI.POST("/exams/:exam_id/missed-requests", handlers.Student.SubmitMissedExam)
		studentAPI.GET("/missed-requests", handlers.Student.ListMissedExams)

		studentAPI.GET("/attempts", handlers.Student.ListAttempts)
		studentAPI.GET("/attempts/:attempt_id", handlers.Student.GetProgress)
		studentAPI.GET("/attempts/:attempt_id/paper", handlers.Student.GetPaper)
		studentAPI.POST("/attempts/:attempt_id/part-a", handlers.Student.SubmitPartA)
		studentAPI.POST("/attempts/:attempt_id/part-b", handlers.Student.SubmitPartB)
		studentAPI.GET("/attempts/:attempt_id/result", handlers.Student.GetResult)

		studentAPI.GET("/attempts/:attempt_id/re-exam", handlers.Student.GetReExamStatus)
		studentAPI.POST("/attempts/:attempt_id/re-exam/payment", handlers.Student.PayReExam)
		studentAPI.POST("/attempts/:attempt_id/re-exam", handlers.Student.CreateReExam)

		studentAPI.GET("/certificates", handlers.Student.ListCertificates)
		studentAPI.GET("/achievements", handlers.Student.ListAchievements)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService), revoked)
	{
		ws.GET("/student/results", handlers.WS.ResultStream)
	}

	// ─── 4. Instructor Group (JWT + RBAC) ──────────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructorJWT(authService), revoked)
	{
		readExams := middleware.RequirePermission(model.PermissionExamsRead)
		writeExams := middleware.RequirePermission(model.PermissionExamsWriteOwn)
		writeSchedules := middleware.RequirePermission(model.PermissionSchedulesWrite)
		grade := middleware.RequirePermission(model.PermissionGradingWrite)
		resolve := middleware.RequirePermission(model.PermissionMissedExamsResolve)

		// Exams and question banks
		instructorAPI.GET("/exams", readExams, handlers.Exam.ListExams)
		instructorAPI.POST("/exams", writeExams, handlers.Exam.CreateExam)
		instructorAPI.GET("/exams/:exam_id", readExams, handlers.Exam.GetExam)
		instructorAPI.GET("/exams/:exam_id/questions", readExams, handlers.Exam.ListQuestions)
		instructorAPI.POST("/exams/:exam_id/questions", writeExams, handlers.Exam.AddQuestion)

		// Schedules
		instructorAPI.GET("/exams/:exam_id/schedules", readExams, handlers.Schedule.ListSchedules)
		instructorAPI.POST("/exams/:exam_id/schedules", writeSchedules, handlers.Schedule.AssignSchedule)
		instructorAPI.POST("/exams/:exam_id/schedules/bulk", writeSchedules, handlers.Schedule.BulkAssign)
		instructorAPI.DELETE("/schedules/:schedule_id", writeSchedules, handlers.Schedule.UnassignSchedule)

		// Grading
		instructorAPI.GET("/grading/pending", grade, handlers.Grading.ListPending)
		instructorAPI.GET("/grading/attempts/:attempt_id", grade, handlers.Grading.GetGradingView)
		instructorAPI.POST("/grading/attempts/:attempt_id/part-b", grade, handlers.Grading.GradePartB)
		instructorAPI.POST("/grading/attempts/:attempt_id/internal", grade, handlers.Grading.AssignInternal)

		// Missed-exam requests
		instructorAPI.GET("/missed-requests", resolve, handlers.Schedule.ListMissedRequests)
		instructorAPI.POST("/missed-requests/:request_id/approve", resolve, handlers.Schedule.ApproveMissedRequest)
		instructorAPI.POST("/missed-requests/:request_id/reject", resolve, handlers.Schedule.RejectMissedRequest)
	}

	// ─── 5. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), revoked)
	{
		adminAPI.GET("/exams",
			middleware.RequirePermission(model.PermissionExamsRead),
			handlers.Exam.ListExams,
		)
		adminAPI.GET("/exams/:exam_id",
			middleware.RequirePermission(model.PermissionExamsRead),
			handlers.Exam.GetExam,
		)
		adminAPI.POST("/exams/:exam_id/review",
			middleware.RequirePermission(model.PermissionExamsApprove),
			handlers.Exam.ReviewExam,
		)

		adminAPI.POST("/enrollments/complete",
			middleware.RequirePermission(model.PermissionEnrollmentsWrite),
			handlers.Admin.CompleteEnrollment,
		)

		adminAPI.POST("/publications/sweep",
			middleware.RequireAnyPermission(model.PermissionGradingWrite, model.PermissionExamsApprove),
			handlers.Admin.RunPublicationSweep,
		)
		adminAPI.POST("/publications/:attempt_id",
			middleware.RequireAnyPermission(model.PermissionGradingWrite, model.PermissionExamsApprove),
			handlers.Admin.PublishAttempt,
		)
	}

	return router
}
