package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/handler"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/middleware"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
)

// activityCatalogMaxAge is how long browsers may reuse the activity list.
const activityCatalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	ExamStream   *handler.ExamStreamHandler
	Intervention *handler.InterventionHandler
	Setting      *handler.SettingHandler
	Monitor      *handler.MonitorHandler
	Health       *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens middleware.TokenValidator,
	limiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	auth := middleware.RequireAuth(tokens)

	// ─── 1. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(auth, middleware.RequireRole(service.RoleStudent), limiter.Middleware(), middleware.NoStore())
	{
		studentAPI.GET("/exams/:exam_id/state", handlers.ExamStream.State)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(auth, middleware.RequireRole(service.RoleStudent), limiter.Middleware())
	{
		ws.GET("/student/exams/:exam_id/stream", handlers.ExamStream.Stream)
	}

	// ─── 3. Teacher Group ──────────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(auth, middleware.RequireRole(service.RoleTeacher), limiter.Middleware())
	{
		teacherAPI.GET("/interventions/activities",
			middleware.CacheControl(activityCatalogMaxAge),
			handlers.Intervention.ListActivities,
		)
		teacherAPI.POST("/interventions/suggest", middleware.NoStore(), handlers.Intervention.Suggest)

		teacherAPI.GET("/classes/:class_id/interventions/suggestions", middleware.NoStore(), handlers.Intervention.ClassSuggestions)
		teacherAPI.POST("/classes/:class_id/interventions", middleware.NoStore(), handlers.Intervention.RecordImplementation)

		teacherAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExamSSE)
	}

	// ─── 4. Settings Group ─────────────────────────────────────────────
	settingsAPI := router.Group("/api/v1/settings")
	settingsAPI.Use(auth, middleware.RequireRole(service.RoleTeacher, service.RoleAdmin), limiter.Middleware(), middleware.NoStore())
	{
		settingsAPI.GET("/assistant", handlers.Setting.GetAssistantSettings)
		settingsAPI.PUT("/assistant", handlers.Setting.UpdateAssistantSettings)
	}

	return router
}
