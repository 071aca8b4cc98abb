package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bktrung/academic-records-api/api/swagger"
	"github.com/bktrung/academic-records-api/internal/handler"
	"github.com/bktrung/academic-records-api/internal/middleware"
	"github.com/bktrung/academic-records-api/internal/models"
	"github.com/bktrung/academic-records-api/internal/repository"
	"github.com/bktrung/academic-records-api/internal/service"
	"github.com/bktrung/academic-records-api/pkg/cache"
	"github.com/bktrung/academic-records-api/pkg/config"
	"github.com/bktrung/academic-records-api/pkg/database"
	"github.com/bktrung/academic-records-api/pkg/export"
	"github.com/bktrung/academic-records-api/pkg/logger"
	corsmiddleware "github.com/bktrung/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bktrung/academic-records-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Academic scheduling, enrollment eligibility, and transcript engine
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()
	cacheStore := cache.NewStore(redisClient)

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	statusSvc := service.NewStatusService(statusRepo, studentRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, statusRepo, statusSvc, departmentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, departmentRepo, classRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, validate, logr)
	prerequisites := service.NewPrerequisiteResolver(enrollmentRepo)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, classRepo, studentRepo, courseRepo, semesterRepo, prerequisites, validate, logr)
	transcriptSvc := service.NewTranscriptService(enrollmentRepo, studentRepo, cacheStore, cfg.Transcript, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, transcriptSvc, validate, logr)

	// Handlers.
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	statusHandler := handler.NewStatusHandler(statusSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	classHandler := handler.NewClassHandler(classSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, export.NewPDFExporter())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	protected.GET("/departments", staff, departmentHandler.List)
	protected.POST("/departments", adminOnly, departmentHandler.Create)
	protected.PUT("/departments/:id", adminOnly, departmentHandler.Rename)
	protected.DELETE("/departments/:id", adminOnly, departmentHandler.Delete)

	protected.GET("/statuses", staff, statusHandler.List)
	protected.POST("/statuses", adminOnly, statusHandler.Create)
	protected.PUT("/statuses/:id", adminOnly, statusHandler.Rename)
	protected.DELETE("/statuses/:id", adminOnly, statusHandler.Delete)
	protected.GET("/status-transitions", staff, statusHandler.ListTransitions)
	protected.POST("/status-transitions", adminOnly, statusHandler.AddTransition)
	protected.DELETE("/status-transitions", adminOnly, statusHandler.RemoveTransition)

	protected.GET("/students", staff, studentHandler.List)
	protected.POST("/students", staff, studentHandler.Create)
	protected.GET("/students/:id", staff, studentHandler.Get)
	protected.PUT("/students/:id", staff, studentHandler.Update)
	protected.PATCH("/students/:id/status", staff, studentHandler.ChangeStatus)
	protected.GET("/students/:id/transcript", staff, transcriptHandler.Get)
	protected.GET("/students/:id/transcript/pdf", staff, transcriptHandler.Export)

	protected.GET("/courses", staff, courseHandler.List)
	protected.POST("/courses", adminOnly, courseHandler.Create)
	protected.GET("/courses/:code", staff, courseHandler.Get)
	protected.PUT("/courses/:code", adminOnly, courseHandler.Update)
	protected.DELETE("/courses/:code", adminOnly, courseHandler.Deactivate)

	protected.GET("/classes", staff, classHandler.List)
	protected.POST("/classes", adminOnly, classHandler.Create)
	protected.GET("/classes/:code", staff, classHandler.Get)
	protected.PUT("/classes/:code", adminOnly, classHandler.Update)
	protected.DELETE("/classes/:code", adminOnly, classHandler.Deactivate)

	protected.GET("/semesters", staff, semesterHandler.List)
	protected.POST("/semesters", adminOnly, semesterHandler.Create)
	protected.GET("/semesters/:academic_year/:semester", staff, semesterHandler.Get)
	protected.PUT("/semesters/:academic_year/:semester", adminOnly, semesterHandler.Update)

	protected.GET("/enrollments", staff, enrollmentHandler.List)
	protected.POST("/enrollments", staff, enrollmentHandler.Enroll)
	protected.POST("/enrollments/drop", staff, enrollmentHandler.Drop)
	protected.GET("/enrollments/:enrollment_id/grade", staff, gradeHandler.Get)
	protected.POST("/enrollments/:enrollment_id/grade", staff, gradeHandler.Create)
	protected.PUT("/enrollments/:enrollment_id/grade", staff, gradeHandler.Update)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
