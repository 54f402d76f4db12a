package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edustream-api/api/swagger"
	"github.com/noah-isme/edustream-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/repository"
	"github.com/noah-isme/edustream-api/internal/server"
	"github.com/noah-isme/edustream-api/internal/service"
	"github.com/noah-isme/edustream-api/pkg/authclient"
	"github.com/noah-isme/edustream-api/pkg/config"
	"github.com/noah-isme/edustream-api/pkg/storage"
)

// @title EduStream Course API
// @version 1.0.0
// @description Course catalog, categories, enrollments and course media
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rt, err := server.Setup(config.ServiceCourse)
	if err != nil {
		log.Fatalf("failed to start course service: %v", err)
	}
	cfg := rt.Config

	r := rt.Router()

	var store storage.FileStore
	if cfg.Storage.Driver == "local" {
		publicBase := cfg.Storage.PublicBase
		if publicBase == "" {
			publicBase = fmt.Sprintf("http://localhost:%d/uploads", cfg.Port)
		}
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, publicBase, rt.Logger)
		if err != nil {
			rt.Logger.Fatal("failed to prepare upload directory", zap.Error(err))
		}
		r.Static("/uploads", local.Dir())
		store = local
	} else {
		store = storage.NewS3Store(cfg.Storage, rt.Logger)
	}
	r.MaxMultipartMemory = 32 << 20

	notifier := rt.Events()

	courses := repository.NewCourseRepository(rt.DB)
	categories := repository.NewCategoryRepository(rt.DB)
	enrollments := repository.NewEnrollmentRepository(rt.DB)

	courseSvc := service.NewCourseService(courses, categories, enrollments, store, notifier, rt.Logger, service.CourseConfig{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	cache := service.NewCacheService(repository.NewCacheRepository(rt.Redis, cfg.ServiceName), rt.Metrics, cfg.Redis.CacheTTL, rt.Logger)
	categorySvc := service.NewCategoryService(categories, courses, courseSvc, validator.New(), rt.Logger).
		WithCache(cache, cfg.Redis.CacheTTL)
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, courseSvc, rt.Logger)

	courseHandler := handler.NewCourseHandler(courseSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)

	auth := internalmiddleware.JWT(authclient.New(cfg.AuthAPI.BaseURL, cfg.AuthAPI.Timeout, rt.Logger))
	staff := internalmiddleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	admin := internalmiddleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	registerCourseRoutes(api, courseHandler, auth, staff)
	registerCategoryRoutes(api, categoryHandler, auth, admin)
	registerEnrollmentRoutes(api, enrollmentHandler, auth, admin)

	if err := rt.Serve(r); err != nil {
		log.Fatalf("course service stopped: %v", err)
	}
}

func registerCourseRoutes(api *gin.RouterGroup, h *handler.CourseHandler, auth, staff gin.HandlerFunc) {
	courses := api.Group("/courses", internalmiddleware.UUIDParams("id"))
	courses.GET("", h.List)
	courses.GET("/admin", auth, staff, h.ListManaged)
	courses.GET("/:id", h.Get)
	courses.GET("/:id/manage", auth, staff, h.GetManaged)
	courses.POST("", auth, staff, h.Create)
	courses.PUT("/:id", auth, staff, h.Update)
	courses.DELETE("/:id", auth, staff, h.Delete)
	courses.POST("/:id/publish", auth, staff, h.Publish)
	courses.POST("/:id/unpublish", auth, staff, h.Unpublish)
}

func registerCategoryRoutes(api *gin.RouterGroup, h *handler.CategoryHandler, auth, admin gin.HandlerFunc) {
	categories := api.Group("/categories", internalmiddleware.UUIDParams("id"))
	categories.GET("", h.List)
	categories.GET("/all", auth, admin, h.ListAll)
	categories.GET("/:id", h.Get)
	categories.GET("/:id/courses", h.Courses)
	categories.POST("", auth, admin, h.Create)
	categories.POST("/reconcile", auth, admin, h.Reconcile)
	categories.PUT("/:id", auth, admin, h.Update)
	categories.DELETE("/:id", auth, admin, h.Delete)
	categories.POST("/:id/toggle", auth, admin, h.Toggle)
}

func registerEnrollmentRoutes(api *gin.RouterGroup, h *handler.EnrollmentHandler, auth, admin gin.HandlerFunc) {
	enrollments := api.Group("/enrollments", auth, internalmiddleware.UUIDParams("courseId"))
	enrollments.GET("/me", h.Mine)
	enrollments.GET("/summary", admin, h.Summary)
	enrollments.POST("/:courseId/enroll", h.Enroll)
	enrollments.DELETE("/:courseId/enroll", h.Unenroll)
}
