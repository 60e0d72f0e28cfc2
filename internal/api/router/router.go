package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/api/handler"
	"github.com/Dotaka123/worship-team-manager/internal/api/middleware"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/pkg/jwt"
	"github.com/Dotaka123/worship-team-manager/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单检查关闭，限流退化为进程内令牌桶
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		checker middleware.TokenChecker
		limiter middleware.WindowLimiter
	)
	if rdb != nil {
		checker, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.Timeout(cfg.Database.QueryTimeout))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	writer := middleware.RoleAuth(model.UserRoleAdmin, model.UserRoleLeader)
	admin := middleware.RoleAuth(model.UserRoleAdmin)
	authLimit := middleware.RateLimit(limiter, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow)
	exportLimit := middleware.RateLimit(limiter, cfg.RateLimit.ExportLimit, cfg.RateLimit.ExportWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", authLimit)
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户管理（仅管理员）
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id/role", h.User.UpdateRole)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 成员模块
			members := authorized.Group("/members")
			{
				members.GET("", h.Member.ListMembers)
				members.GET("/search", h.Member.SearchMembers)
				members.GET("/:id", h.Member.GetMember)
				members.GET("/:id/notes", h.Note.ListByMember)
				members.POST("", writer, h.Member.CreateMember)
				members.PUT("/:id", writer, h.Member.UpdateMember)
				members.DELETE("/:id", writer, h.Member.DeleteMember)
			}

			// 备注模块
			notes := authorized.Group("/notes", writer)
			{
				notes.POST("", h.Note.CreateNote)
				notes.PUT("/:id", h.Note.UpdateNote)
				notes.DELETE("/:id", h.Note.DeleteNote)
			}

			// 会费模块
			dues := authorized.Group("/dues")
			{
				dues.GET("", h.Dues.ListDues)
				dues.GET("/recent", h.Dues.RecentPayments)
				dues.GET("/stats/:month", h.Dues.MonthStats)
				dues.GET("/member/:memberId", h.Dues.ListByMember)
				dues.GET("/:id", h.Dues.GetDues)
				dues.POST("", writer, h.Dues.CreateDues)
				dues.POST("/generate", writer, h.Dues.GenerateDues)
				dues.PUT("/:id", writer, h.Dues.UpdateDues)
				dues.PATCH("/:id/pay", writer, h.Dues.MarkPaid)
				dues.PATCH("/:id/cancel", writer, h.Dues.CancelPayment)
				dues.DELETE("/:id", writer, h.Dues.DeleteDues)
			}

			// 考勤模块
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("", h.Attendance.ByDate)
				attendance.GET("/all", h.Attendance.ListAll)
				attendance.GET("/member/:id", h.Attendance.ByMember)
				attendance.GET("/member/:id/rate", h.Attendance.Rate)
				attendance.POST("", writer, h.Attendance.Record)
				attendance.PUT("/:id", writer, h.Attendance.Update)
				attendance.DELETE("/:id", writer, h.Attendance.Delete)
			}

			// 统计模块
			stats := authorized.Group("/stats")
			{
				stats.GET("/overview", h.Stats.Overview)
				stats.GET("/members/:id", h.Stats.MemberStats)
				stats.GET("/trend/dues", h.Stats.DuesTrend)
				stats.GET("/trend/attendance", h.Stats.AttendanceTrend)
				stats.GET("/top-attendance", h.Stats.TopAttendance)
				stats.GET("/low-attendance", h.Stats.LowAttendance)
				stats.GET("/distribution/:dimension", h.Stats.Distribution)
				stats.GET("/financial-insights", h.Stats.FinancialInsights)
				stats.GET("/goals", h.Stats.Goals)
			}

			// 活动模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.GET("/calendar.ics", h.Event.Calendar)
				events.GET("/:id", h.Event.GetEvent)
				events.POST("", writer, h.Event.CreateEvent)
				events.PUT("/:id", writer, h.Event.UpdateEvent)
				events.DELETE("/:id", writer, h.Event.DeleteEvent)
				events.PUT("/:id/members/:memberId/confirm", writer, h.Event.ConfirmMember)
			}

			// 导出模块
			export := authorized.Group("/export", exportLimit)
			{
				export.GET("/excel/monthly/:month", h.Export.MonthlyReport)
				export.GET("/excel/members", h.Export.Members)
				export.GET("/csv/dues/:month", h.Export.DuesCSV)
			}

			// 邮件通知（手动触发）
			notifications := authorized.Group("/notifications", writer, exportLimit)
			{
				notifications.POST("/dues-reminders/:month", h.Notification.DuesReminders)
				notifications.POST("/absence-alerts", h.Notification.AbsenceAlerts)
				notifications.POST("/monthly-report/:month", h.Notification.MonthlyReport)
			}
		}
	}

	return r
}
