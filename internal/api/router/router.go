package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-catering/backend/config"
	"social-catering/backend/internal/api/handler"
	"social-catering/backend/internal/api/middleware"
	"social-catering/backend/pkg/jwt"
	"social-catering/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时关闭 Token 黑名单与派工限流；metricsHandler 为 nil 时不暴露指标
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── Prometheus 指标 ──
	if metricsHandler != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(metricsHandler))
	}

	// 避免 nil *redis.Client 被装进非 nil 接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	supervisors := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleManager)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, blacklist))
	{
		// 派工
		shifts := v1.Group("/shifts")
		{
			shifts.POST("/:id/assignments",
				middleware.RateLimit(limiter, cfg.RateLimit.AssignLimit, cfg.RateLimit.AssignWindow),
				h.Assignment.AssignWorker)
			shifts.POST("/:id/assignments/validate", h.Assignment.ValidateCandidate)
		}

		// 排班生命周期
		assignments := v1.Group("/assignments")
		{
			assignments.POST("/:id/confirm", h.Assignment.ConfirmAssignment)
			assignments.POST("/:id/clock-in", h.Assignment.ClockIn)
			assignments.POST("/:id/clock-out", h.Assignment.ClockOut)
			assignments.PUT("/:id/hours", supervisors, h.Assignment.EditHours)
			assignments.POST("/:id/approve", supervisors, h.Assignment.Approve)
			assignments.POST("/:id/unapprove", supervisors, h.Assignment.Unapprove)
			assignments.POST("/:id/no-show", supervisors, h.Assignment.MarkNoShow)
			assignments.POST("/:id/remove", supervisors, h.Assignment.RemoveFromJob)
			assignments.DELETE("/:id", supervisors, h.Assignment.DeleteAssignment)
		}

		// 活动
		events := v1.Group("/events")
		{
			events.GET("/:id", h.Event.GetEvent)
			events.POST("/:id/publish", supervisors, h.Event.PublishEvent)
			events.POST("/:id/shifts/generate", supervisors, h.Event.GenerateShifts)
			events.PUT("/:id/schedule", supervisors, h.Event.UpdateSchedule)
			events.POST("/:id/recalculate", supervisors, h.Event.RecalculateEvent)
			events.GET("/:id/activity-logs", h.Event.ListActivityLogs)
			events.GET("/:id/timesheet", supervisors, h.Export.ExportTimesheet)
			events.GET("/:id/calendar.ics", h.Export.ExportCalendar)
		}

		// 技能需求费率
		v1.PUT("/skill-requirements/:id/pay-rate", supervisors, h.Event.UpdatePayRate)
	}

	return r
}
