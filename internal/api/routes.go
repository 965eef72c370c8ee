package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		events.GET("", handler.ListRecentEvents)
		events.GET("/all", handler.ListAllEvents)
		events.GET("/today", handler.ListTodayEvents)
		events.GET("/search", handler.SearchEvents)
		events.GET("/export", handler.ExportEvents)
		events.GET("/export/all", handler.ExportAllEvents)

		students := v1.Group("/students")
		students.GET("/count", handler.CountStudents)
		students.GET("/count/today", handler.CountStudentsToday)
		students.GET("/with-plan", handler.ListStudentsWithPlan)
		students.GET("/search", handler.SearchStudents)

		dashboard := v1.Group("/dashboard")
		dashboard.GET("/today", handler.TodayDashboard)
		dashboard.GET("/month", handler.MonthDashboard)
		dashboard.GET("/plans", handler.PlanDashboard)

		v1.POST("/claims", handler.SubmitClaim)
		v1.POST("/rosters", handler.RegisterRoster)
		v1.GET("/rosters/:file_id", handler.GetRosterStatus)
	}
}

// NewRouter builds the engine with the standard middleware chain.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(CORSMiddleware(handler.cfg.Server.CORSOrigins))
	router.Use(TimeoutMiddleware(handler.cfg.Server.RequestTimeout))

	SetupRoutes(router, handler)
	return router
}
