package router

import (
	"github.com/gin-gonic/gin"

	"shipdocs/internal/config"
	"shipdocs/internal/handler"
	"shipdocs/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	shipmentH *handler.ShipmentHandler,
	documentH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/health", healthH.Liveness)

	v1 := r.Group("/api/v1")

	shipments := v1.Group("/shipments")
	shipments.POST("/process", shipmentH.Process)
	shipments.GET("", shipmentH.List)
	shipments.GET("/export", shipmentH.Export)
	shipments.GET("/:id", shipmentH.GetByID)
	shipments.PUT("/:id", shipmentH.Update)
	shipments.DELETE("/:id", shipmentH.Delete)

	v1.GET("/documents/*key", documentH.Get)

	return r
}
