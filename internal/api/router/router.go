package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mariamwidari-blip/kunyit-attendee/config"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/api/handler"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/api/middleware"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/jwt"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/redis"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// 限流阈值
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
	scanRateLimit   = 120
	scanRateWindow  = time.Minute
	proxyRateLimit  = 60
	proxyRateWindow = time.Minute
)

const qrcodeProxyPath = "/api/v1/qrcode/generate"

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	r.Use(skipPath(qrcodeProxyPath, middleware.CORS(cfg.Server.CORS.AllowOrigins)))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, 10006, "接口不存在")
	})

	// ── 二维码生成代理（任意来源可调用）──
	r.OPTIONS(qrcodeProxyPath, middleware.OpenCORS())
	r.POST(qrcodeProxyPath, middleware.OpenCORS(), middleware.RateLimit(rdb, proxyRateLimit, proxyRateWindow), h.QRCode.Generate)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 人员模块
			people := authorized.Group("/people")
			{
				people.GET("", h.Person.ListPeople)
				people.POST("", h.Person.CreatePerson)
				people.POST("/import", h.Person.ImportPeople)
				people.GET("/import/template", h.Person.ImportTemplate)
				people.GET("/:id", h.Person.GetPerson)
				people.PUT("/:id", h.Person.UpdatePerson)
				people.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Person.DeletePerson)
				people.GET("/:id/qrcode", h.QRCode.PersonQRCode)
				people.GET("/:id/badge", h.QRCode.PersonBadge)
			}

			// 活动模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.POST("", h.Event.CreateEvent)
				events.GET("/active", h.Event.GetActiveEvent)
				events.GET("/calendar.ics", h.Event.Calendar)
				events.PUT("/:id/active", h.Event.SetEventActive)
				events.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Event.DeleteEvent)
			}

			// 签到模块
			attendance := authorized.Group("/attendance")
			{
				attendance.POST("/scan", middleware.RateLimit(rdb, scanRateLimit, scanRateWindow), h.Attendance.Scan)
				attendance.POST("/qr", h.Attendance.QRCode)
				attendance.POST("/manual", h.Attendance.Manual)
			}

			// 仪表盘
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("/stats", h.Dashboard.Stats)
				dashboard.GET("/check-ins", h.Dashboard.CheckIns)
			}

			// 导出模块
			authorized.GET("/export/attendance", h.Export.ExportAttendance)
		}
	}

	return r
}

// skipPath 对指定路径跳过中间件 mw
func skipPath(path string, mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == path {
			c.Next()
			return
		}
		mw(c)
	}
}
