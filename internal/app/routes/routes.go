package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/controllers"
	"github.com/yigit/rosterhub/internal/middleware"
)

// Controllers groups the handlers the router needs
type Controllers struct {
	Auth            *controllers.AuthController
	Student         *controllers.StudentController
	AcademicHistory *controllers.AcademicHistoryController
	Roster          *controllers.RosterController
	Health          *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", ctrl.Health.Ping)
	router.GET("/health", ctrl.Health.Health)

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", ctrl.Auth.Login)
	}
	v1.POST("/students", ctrl.Student.RegisterStudent)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.SessionAuth())
	{
		authenticated.POST("/auth/logout", ctrl.Auth.Logout)

		students := authenticated.Group("/students")
		{
			students.GET("", ctrl.Roster.ListStudents)
			students.GET("/search", ctrl.Roster.SearchStudents)
			students.GET("/export", ctrl.Roster.ExportRoster)
			students.GET("/:id", ctrl.Student.GetStudent)
			students.PATCH("/:id", ctrl.Student.UpdateStudent)
			students.DELETE("/:id", ctrl.Student.DeleteStudent)
		}

		history := authenticated.Group("/academic-history")
		{
			history.PUT("/:rollNumber", ctrl.AcademicHistory.SubmitAcademicHistory)
			history.GET("/:rollNumber", ctrl.AcademicHistory.GetAcademicHistory)
		}
	}
}
