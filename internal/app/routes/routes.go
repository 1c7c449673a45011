package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/edupulse/edupulse/internal/app/controllers"
	"github.com/edupulse/edupulse/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	reconciliationController *controllers.ReconciliationController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Public course reads ---
	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
		courses.GET("/:id/occurrences", courseController.GetOccurrences)
	}

	// --- Authenticated administrative routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		coursesProtected := authenticated.Group("/courses")
		{
			coursesProtected.POST("", courseController.CreateCourse)
			coursesProtected.PUT("/:id", courseController.UpdateCourse)
			coursesProtected.DELETE("/:id", courseController.DeleteCourse)
			coursesProtected.POST("/:id/publish", courseController.PublishCourse)
			coursesProtected.POST("/:id/occurrences/regenerate", courseController.RegenerateOccurrences)
			coursesProtected.POST("/status", reconciliationController.BulkUpdateStatus)
		}

		reconciliation := authenticated.Group("/reconciliation")
		{
			reconciliation.POST("/run", reconciliationController.RunPass)
			reconciliation.POST("/expired", reconciliationController.UpdateExpired)
			reconciliation.GET("/consistency", reconciliationController.CheckConsistency)
			reconciliation.GET("/upcoming", reconciliationController.GetUpcomingExpiry)
		}
	}
}
