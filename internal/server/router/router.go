package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(calc *handlers.CalculationHandler, quotes *handlers.QuoteHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	v1 := r.Group("/v1")
	{
		v1.POST("/calculations", calc.Calculate)

		quoteRoutes := v1.Group("/quotes/:id")
		{
			quoteRoutes.POST("/link", quotes.Link)
			quoteRoutes.DELETE("/link", quotes.Unlink)
			quoteRoutes.PATCH("/parameters", quotes.UpdateParameters)
			quoteRoutes.PUT("/price", quotes.SetPrice)
			quoteRoutes.POST("/price/reset", quotes.ResetPrice)
			quoteRoutes.GET("/sync", quotes.SyncStatus)
		}
	}

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
