// Package server assembles the HTTP surface: middleware, routes and
// operational endpoints.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "herdsnap/internal/docs" // Import swagger docs
	"herdsnap/internal/handlers"
	"herdsnap/internal/middleware"
	"herdsnap/internal/services"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Snapshots services.SnapshotServicer
	Ingest    services.IngestServicer
	Animals   services.AnimalQueryServicer
	Audit     services.AuditServicer

	JWTSecret      []byte
	JWTIssuer      string
	MetricsAPIKey  string
	MaxUploadBytes int64
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(d Deps) *gin.Engine {
	snapshotHandler := handlers.NewSnapshotHandler(d.Snapshots, d.Ingest, d.Audit, d.MaxUploadBytes)
	animalHandler := handlers.NewAnimalHandler(d.Animals)

	router := gin.New()
	// Group names may contain '/', sent percent-encoded in corral paths.
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", middleware.APIKeyMiddleware(d.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret, d.JWTIssuer))

	snapshots := protected.Group("/snapshots")
	snapshots.POST("/upload", snapshotHandler.UploadSnapshot)
	snapshots.POST("", snapshotHandler.CreateSnapshot)
	snapshots.GET("", snapshotHandler.ListSnapshots)
	snapshots.GET("/:id", snapshotHandler.GetSnapshot)
	snapshots.DELETE("/:id", snapshotHandler.DeleteSnapshot)
	snapshots.GET("/:id/download", snapshotHandler.DownloadSnapshot)
	snapshots.GET("/:id/animals", animalHandler.ListAnimals)
	snapshots.GET("/:id/corrals", animalHandler.ListCorrals)
	snapshots.GET("/:id/corrals/:group/animals", animalHandler.ListCorralAnimals)

	return router
}
