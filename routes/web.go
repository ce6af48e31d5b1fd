package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Locality Resolver Service",
			"version": Version,
			"endpoints": map[string]string{
				"search":   "GET /api/v1/locations/search?q=",
				"pincode":  "GET /api/v1/locations/pincode/:code",
				"resolve":  "GET /api/v1/locations/resolve?q=",
				"colleges": "GET /api/v1/colleges/search?q=",
				"health":   "GET /health",
			},
		})
	})
}
