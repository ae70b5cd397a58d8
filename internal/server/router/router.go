package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(records *handlers.RecordsHandler, sync *handlers.SyncHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.GET("/data", records.GetData)
		api.GET("/dashboard", records.GetDashboard)

		api.POST("/pigs", records.CreatePigs)
		api.PUT("/pigs/:id", records.UpdatePig)
		api.DELETE("/pigs/:id", records.DeletePig)

		api.POST("/feeds", records.CreateFeed)
		api.PUT("/feeds/:id", records.UpdateFeed)
		api.DELETE("/feeds/:id", records.DeleteFeed)

		api.POST("/sales", records.CreateSale)
		api.POST("/sales/bulk", records.CreateBulkSale)
		api.PUT("/sales/:id", records.UpdateSale)
		api.DELETE("/sales/:id", records.DeleteSale)

		api.POST("/misc", records.CreateMisc)
		api.PUT("/misc/:id", records.UpdateMisc)
		api.DELETE("/misc/:id", records.DeleteMisc)

		api.GET("/export", records.Export)
		api.POST("/import", records.Import)

		api.PUT("/sync/credential", sync.PutCredential)
		api.GET("/sync/auth/url", sync.GetAuthURL)
		api.POST("/sync/auth", sync.Authenticate)
		api.POST("/sync/save", sync.Save)
		api.POST("/sync/load", sync.Load)
		api.GET("/sync/status", sync.GetStatus)
		api.GET("/sync/events", sync.GetEvents)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
