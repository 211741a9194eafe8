package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	userHandler       *UserHandler
	authMiddleware    *AuthMiddleware

	// localAuth mounts /auth/register and /auth/login
	localAuth bool
	logger    utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver auth.Resolver,
	localAuth bool,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		courseHandler:     NewCourseHandler(serviceManager.Course(), serviceManager.Recommendation(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), serviceManager.Export(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		authMiddleware:    NewAuthMiddleware(resolver, logger),
		localAuth:         localAuth,
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")

	if hm.localAuth {
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", hm.userHandler.Register)
			authRoutes.POST("/login", hm.userHandler.Login)
		}
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.RequireAuth())
	{
		teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)
		studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

		users := api.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.PUT("/me/interests", hm.userHandler.UpdateInterests)
		}
		api.GET("/interests", hm.userHandler.ListInterests)

		courses := api.Group("/courses")
		{
			// Teacher routes
			courses.POST("", teacherOnly, hm.courseHandler.CreateCourse)
			courses.GET("", teacherOnly, hm.courseHandler.ListCourses)
			courses.PUT("/:id", teacherOnly, hm.courseHandler.UpdateCourse)
			courses.POST("/:id/publish", teacherOnly, hm.courseHandler.PublishCourse)
			courses.POST("/:id/archive", teacherOnly, hm.courseHandler.ArchiveCourse)
			courses.GET("/:id/enrollments", teacherOnly, hm.enrollmentHandler.ListCourseEnrollments)
			courses.GET("/:id/enrollments/export", teacherOnly, hm.enrollmentHandler.ExportRoster)

			// Student routes
			courses.GET("/recommended", studentOnly, hm.courseHandler.ListRecommended)
			courses.GET("/enrolled", studentOnly, hm.enrollmentHandler.ListEnrolled)
			courses.POST("/:id/enroll", studentOnly, hm.enrollmentHandler.Enroll)
			courses.GET("/:id/progress", studentOnly, hm.enrollmentHandler.GetProgress)
			courses.POST("/:id/sections/:section_id/complete", studentOnly, hm.enrollmentHandler.CompleteSection)

			// Any authenticated caller
			courses.GET("/:id", hm.courseHandler.GetCourse)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"service":   "mentora-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "mentora-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
