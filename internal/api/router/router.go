package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-enrollment/config"
	"course-enrollment/internal/api/handler"
	"course-enrollment/internal/api/middleware"
	"course-enrollment/pkg/jwt"
	"course-enrollment/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时选课限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 课程目录（学生与协调员均可浏览）
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", h.Catalog.ListCatalog)
			catalog.GET("/:id", h.Catalog.GetCourse)
		}

		// 学生选课
		enrollments := v1.Group("/enrollments", middleware.RoleAuth(jwt.RoleStudent))
		{
			enrollments.POST("",
				middleware.RateLimit(rdb, cfg.RateLimit.EnrollLimit, cfg.RateLimit.EnrollWindow, logger),
				h.Enrollment.Enroll)
			enrollments.GET("/me", h.Enrollment.ListMine)
			enrollments.GET("/me/calendar.ics", h.Export.ExportMyCalendar)
		}

		// 协调员
		coordinator := v1.Group("/coordinator", middleware.RoleAuth(jwt.RoleCoordinator))
		{
			courses := coordinator.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.POST("", h.Course.CreateCourse)
				courses.PUT("/:id", h.Course.UpdateCourse)
				courses.PUT("/:id/activate", h.Course.ActivateCourse)
				courses.PUT("/:id/deactivate", h.Course.DeactivateCourse)
			}

			coordEnrollments := coordinator.Group("/enrollments")
			{
				coordEnrollments.GET("", h.Enrollment.ListEnrollments)
				coordEnrollments.PUT("/:id/confirm", h.Enrollment.Confirm)
				coordEnrollments.PUT("/:id/cancel", h.Enrollment.Cancel)
			}

			coordinator.DELETE("/catalog/cache", h.Catalog.InvalidateCache)
			coordinator.GET("/export/roster", h.Export.ExportRoster)
		}
	}

	return r
}
