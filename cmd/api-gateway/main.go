package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/ojt-portal-api/api/swagger"
	"github.com/noah-isme/ojt-portal-api/internal/biometric"
	"github.com/noah-isme/ojt-portal-api/internal/handler"
	"github.com/noah-isme/ojt-portal-api/internal/middleware"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	"github.com/noah-isme/ojt-portal-api/pkg/cache"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	"github.com/noah-isme/ojt-portal-api/pkg/database"
	"github.com/noah-isme/ojt-portal-api/pkg/export"
	"github.com/noah-isme/ojt-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ojt-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ojt-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

// @title OJT Portal API
// @version 1.0.0
// @description On-the-job training hours portal
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	timeRecordRepo := repository.NewTimeRecordRepository(db)
	faceRepo := repository.NewFaceRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	comparator := biometric.NewComparator(cfg.Face.MatchThreshold)

	auditSvc := service.NewAuditService(userRepo, logr, cfg.Audit)
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ojt-portal-api",
	})
	attendanceSvc := service.NewAttendanceService(timeRecordRepo, studentRepo, placementRepo, faceRepo, comparator, uploads, cacheRepo, auditSvc, metricsSvc, logr, cfg.Attendance, cfg.Progress.CacheTTL)
	faceSvc := service.NewFaceService(faceRepo, studentRepo, comparator, validate, auditSvc, metricsSvc, logr)
	placementSvc := service.NewPlacementService(placementRepo, studentRepo, uploads, validate, auditSvc, metricsSvc, logr)
	userSvc := service.NewUserService(userRepo, validate, auditSvc, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, programRepo, validate, auditSvc, logr, cfg.Attendance)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	programSvc := service.NewProgramService(programRepo, departmentRepo, validate, logr)
	journalSvc := service.NewJournalService(journalRepo, studentRepo, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr)
	exportSvc := service.NewExportService(timeRecordRepo, studentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditSvc.Start(auditCtx)
	defer func() {
		stopAudit()
		auditSvc.Stop()
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, cfg.Uploads.MaxFileSizeBytes)
	faceHandler := handler.NewFaceHandler(faceSvc)
	placementHandler := handler.NewPlacementHandler(placementSvc, cfg.Uploads.MaxFileSizeBytes)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	journalHandler := handler.NewJournalHandler(journalSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	fileHandler := handler.NewFileHandler(signer, uploads)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "reason": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.Me)

		attendance := protected.Group("/attendance")
		{
			attendance.POST("/time-in", middleware.RequireRoles(models.RoleStudent), attendanceHandler.TimeIn)
			attendance.POST("/time-out", middleware.RequireRoles(models.RoleStudent), attendanceHandler.TimeOut)
			attendance.GET("/today", middleware.RequireRoles(models.RoleStudent), attendanceHandler.Today)
			attendance.GET("/progress", middleware.RequireRoles(models.RoleStudent), attendanceHandler.MyProgress)
			attendance.GET("/records", attendanceHandler.List)
		}

		faces := protected.Group("/faces")
		{
			faces.POST("/register", middleware.RequireRoles(models.RoleStudent), faceHandler.Register)
			faces.POST("/compare", middleware.RequireRoles(models.RoleStudent), faceHandler.Compare)
		}

		placements := protected.Group("/placements")
		{
			placements.POST("", middleware.RequireRoles(models.RoleStudent), placementHandler.Submit)
			placements.PUT("", middleware.RequireRoles(models.RoleStudent), placementHandler.Edit)
			placements.GET("/me", middleware.RequireRoles(models.RoleStudent), placementHandler.Mine)
			placements.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), placementHandler.List)
			placements.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), placementHandler.Get)
			placements.POST("/:id/review", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), placementHandler.Review)
		}

		students := protected.Group("/students")
		{
			students.GET("/me", middleware.RequireRoles(models.RoleStudent), studentHandler.Me)
			students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), studentHandler.List)
			students.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), studentHandler.Create)
			students.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), studentHandler.Get)
			students.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), studentHandler.Update)
			students.GET("/:id/progress", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), attendanceHandler.StudentProgress)
			students.GET("/:id/face", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), faceHandler.StudentStatus)
		}

		users := protected.Group("/users", middleware.RequireRoles(models.RoleAdmin))
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		departments := protected.Group("/departments")
		{
			departments.GET("", departmentHandler.List)
			departments.GET("/:id", departmentHandler.Get)
			departments.POST("", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Create)
			departments.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Update)
			departments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Delete)
		}

		programs := protected.Group("/programs")
		{
			programs.GET("", programHandler.List)
			programs.GET("/:id", programHandler.Get)
			programs.POST("", middleware.RequireRoles(models.RoleAdmin), programHandler.Create)
			programs.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), programHandler.Update)
			programs.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), programHandler.Delete)
		}

		journals := protected.Group("/journals")
		{
			journals.GET("", journalHandler.List)
			journals.POST("", middleware.RequireRoles(models.RoleStudent), journalHandler.Create)
			journals.PUT("/:id", middleware.RequireRoles(models.RoleStudent), journalHandler.Update)
			journals.DELETE("/:id", middleware.RequireRoles(models.RoleStudent), journalHandler.Delete)
		}

		announcements := protected.Group("/announcements")
		{
			announcements.GET("", announcementHandler.List)
			announcements.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), announcementHandler.Create)
			announcements.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), announcementHandler.Update)
			announcements.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), announcementHandler.Delete)
		}

		protected.GET("/exports/dtr", exportHandler.DailyTimeRecord)
		protected.GET("/files/sign", fileHandler.Sign)
	}

	// Downloads authenticate through the signed token itself.
	api.GET("/files/download", fileHandler.Download)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
