package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/judy4534/studentSystem/api/swagger"
	"github.com/judy4534/studentSystem/internal/handler"
	"github.com/judy4534/studentSystem/internal/middleware"
	"github.com/judy4534/studentSystem/internal/models"
	"github.com/judy4534/studentSystem/internal/repository"
	"github.com/judy4534/studentSystem/internal/service"
	"github.com/judy4534/studentSystem/pkg/cache"
	"github.com/judy4534/studentSystem/pkg/config"
	"github.com/judy4534/studentSystem/pkg/database"
	"github.com/judy4534/studentSystem/pkg/export"
	"github.com/judy4534/studentSystem/pkg/logger"
	corsmiddleware "github.com/judy4534/studentSystem/pkg/middleware/cors"
	reqidmiddleware "github.com/judy4534/studentSystem/pkg/middleware/requestid"
)

// @title Student System API
// @version 1.0.0
// @description Course registration, grading and academic records portal
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Cache.TTL, logr, false)
	}

	authSvc := service.NewAuthService(userRepo, auditRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, auditRepo, nil, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, courseRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, departmentRepo, assignmentRepo, userRepo, nil, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, nil, logr)
	recordsSvc := service.NewRecordsService(enrollmentRepo, courseRepo, semesterRepo, submissionRepo, userRepo, assignmentRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, semesterRepo, nil, logr)
	gradeSvc := service.NewGradeService(enrollmentRepo, submissionRepo, assignmentRepo, semesterRepo, cfg.Grading.StrictSubmissionLock, nil, logr)
	requestSvc := service.NewRequestService(requestRepo, enrollmentRepo, courseRepo, semesterRepo, notificationRepo, nil, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, recordsSvc, logr)
	reportSvc := service.NewReportService(recordsSvc, enrollmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	dashboardSvc := service.NewDashboardService(userRepo, courseRepo, departmentRepo, requestRepo, semesterRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	recordsHandler := handler.NewRecordsHandler(recordsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("", middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor)

	users := authed.Group("/users")
	users.GET("", adminOnly, userHandler.List)
	users.GET("/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Get)
	users.POST("", adminOnly, userHandler.Create)
	users.PUT("/:id", adminOnly, userHandler.Update)
	users.DELETE("/:id", adminOnly, userHandler.Delete)

	departments := authed.Group("/departments")
	departments.GET("", departmentHandler.List)
	departments.GET("/:id", departmentHandler.Get)
	departments.POST("", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "departments"), departmentHandler.Create)
	departments.PUT("/:id", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "departments"), departmentHandler.Update)
	departments.DELETE("/:id", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "departments"), departmentHandler.Delete)

	courses := authed.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "courses"), courseHandler.Create)
	courses.PUT("/:id", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "courses"), courseHandler.Update)
	courses.DELETE("/:id", adminOnly, middleware.Audit(auditSvc, models.AuditActionCatalogMutation, "courses"), courseHandler.Delete)
	courses.POST("/:id/professors", adminOnly, courseHandler.AssignProfessor)
	courses.DELETE("/:id/professors/:professorId", adminOnly, courseHandler.UnassignProfessor)

	authed.GET("/professors/:id/courses", staff, courseHandler.TaughtBy)

	semesters := authed.Group("/semesters")
	semesters.GET("", semesterHandler.List)
	semesters.GET("/open", semesterHandler.GetOpen)
	semesters.GET("/:id", semesterHandler.Get)
	semesters.POST("", adminOnly, semesterHandler.Create)
	semesters.PUT("/:id", adminOnly, semesterHandler.Update)
	semesters.PUT("/:id/open", adminOnly, middleware.Audit(auditSvc, models.AuditActionSemesterOpen, "semesters"), semesterHandler.Open)
	semesters.PUT("/:id/close", adminOnly, semesterHandler.Close)
	semesters.DELETE("/:id", adminOnly, semesterHandler.Delete)

	enrollments := authed.Group("/enrollments")
	enrollments.GET("", staff, enrollmentHandler.List)
	enrollments.POST("", middleware.RBAC("ADMIN", "STUDENT"), middleware.Audit(auditSvc, models.AuditActionEnroll, "enrollments"), enrollmentHandler.Create)
	enrollments.POST("/transfer-credit", adminOnly, middleware.Audit(auditSvc, models.AuditActionTransferCredit, "enrollments"), enrollmentHandler.TransferCredit)
	enrollments.DELETE("/:studentId/:courseId", middleware.RBAC("ADMIN", "STUDENT"), middleware.Audit(auditSvc, models.AuditActionUnenroll, "enrollments"), enrollmentHandler.Delete)

	grades := authed.Group("/grades")
	grades.PUT("/enrollments/:id", staff, middleware.Audit(auditSvc, models.AuditActionGradeUpdate, "grades"), gradeHandler.Update)
	grades.POST("/courses/:id/submit", staff, middleware.Audit(auditSvc, models.AuditActionGradeSubmit, "grades"), gradeHandler.Submit)

	requests := authed.Group("/requests")
	requests.GET("", requestHandler.List)
	requests.POST("", middleware.RequireRoles(models.RoleStudent), middleware.Audit(auditSvc, models.AuditActionRequestCreate, "requests"), requestHandler.Create)
	requests.PUT("/:id/approve", adminOnly, middleware.Audit(auditSvc, models.AuditActionRequestApprove, "requests"), requestHandler.Approve)
	requests.PUT("/:id/reject", adminOnly, middleware.Audit(auditSvc, models.AuditActionRequestReject, "requests"), requestHandler.Reject)

	records := authed.Group("/records")
	records.GET("/students/:id/courses/:courseId", recordsHandler.Standing)
	records.GET("/students/:id/standings", recordsHandler.CatalogStandings)
	records.GET("/students/:id/transcript", recordsHandler.Transcript)
	records.GET("/semesters/:id/submissions", staff, recordsHandler.SubmissionBoard)

	notifications := authed.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/semesters/:id/reminders", adminOnly, notificationHandler.SendReminders)

	if cfg.Dashboard.Enabled {
		authed.GET("/dashboard/stats", adminOnly, dashboardHandler.Stats)
	}

	reports := authed.Group("/reports")
	reports.GET("/students/:id/transcript", reportHandler.Transcript)
	reports.GET("/courses/:id/roster", staff, reportHandler.CourseRoster)

	authed.GET("/audit-logs", adminOnly, auditHandler.List)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
