package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wolf-scheduler/backend/config"
	"wolf-scheduler/backend/internal/api/handler"
	"wolf-scheduler/backend/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 课程目录
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", h.Catalog.ListCatalog)
			catalog.POST("/reload", h.Catalog.ReloadCatalog)
		}

		// 课表
		schedule := v1.Group("/schedule")
		{
			schedule.GET("", h.Schedule.GetSchedule)
			schedule.GET("/full", h.Schedule.GetFullSchedule)
			schedule.GET("/calendar", h.Schedule.GetCalendar)
			schedule.GET("/conflicts", h.Schedule.GetConflicts)
			schedule.POST("/courses", h.Schedule.AddCourse)
			schedule.DELETE("/courses", h.Schedule.RemoveCourse)
			schedule.POST("/reset", h.Schedule.ResetSchedule)
			schedule.GET("/title", h.Schedule.GetTitle)
			schedule.PUT("/title", h.Schedule.UpdateTitle)

			// 导出
			schedule.POST("/export", h.Export.ExportText)
			schedule.GET("/export/xlsx", h.Export.ExportExcel)
			schedule.GET("/export/ics", h.Export.ExportICS)
		}
	}

	return r
}
