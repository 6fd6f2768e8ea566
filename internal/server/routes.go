package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API surface
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/claim", SubmitClaim(deps))
		api.GET("/claim", ListClaims(deps))
		api.POST("/verify", VerifyClaim(deps))
		api.POST("/broadcast", BroadcastClaim(deps))

		api.POST("/upload", UploadAsset(deps))
		api.POST("/orchestrate", OrchestrateEvent(deps))
		api.POST("/compute", ComputeAsset(deps))
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
