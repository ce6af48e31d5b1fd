package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/controllers"
	"github.com/locality-resolver/helpers/utils"
)

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, locationController *controllers.LocationController, collegeController *controllers.CollegeController, adminController *controllers.AdminController) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		locations := v1.Group("/locations")
		{
			locations.GET("", locationController.List)
			locations.GET("/search", locationController.Search)
			locations.GET("/resolve", locationController.Resolve)
			locations.GET("/pincode/:code", locationController.ByPincode)
		}

		colleges := v1.Group("/colleges")
		{
			colleges.GET("", collegeController.List)
			colleges.GET("/search", collegeController.Search)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", adminController.GetStats)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.POST("/backfill", adminController.Backfill)
			admin.POST("/search/reindex", adminController.Reindex)
			admin.GET("/fuzzy/explain", adminController.ExplainFuzzy)
		}

		v1.GET("/health", adminController.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, adminController *controllers.AdminController) {
	router.GET("/health", adminController.HealthCheck)

	// Liveness không phụ thuộc store
	router.GET("/live", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "alive"})
	})
}

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, logger *zap.Logger, locationController *controllers.LocationController, collegeController *controllers.CollegeController, adminController *controllers.AdminController) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, adminController)
	SetupAPIRoutes(router, locationController, collegeController, adminController)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":      "route not found",
			"code":       "not_found",
			"request_id": utils.GetRequestID(c),
		})
	})
}

// setupMiddleware thiết lập middleware cho router
func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(utils.RequestID())
	router.Use(requestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:   []string{utils.RequestIDHeader, "X-Cache", "X-Match-Strategy"},
		MaxAge:          12 * time.Hour,
	}))
}

// requestLogger ghi log mỗi request bằng zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", utils.GetRequestID(c)),
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}
