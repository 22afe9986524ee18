// Package router assembles the gin engine for the read API.
package router

import (
	"github.com/gin-gonic/gin"

	"klinehub/internal/handler"
)

// Config carries the handlers the router mounts.
type Config struct {
	KlineHandler *handler.KlineHandler
}

// NewRouter builds the engine with CORS middleware and all kline routes.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()
	router.Use(corsMiddleware())

	registerKlineRoutes(router, cfg.KlineHandler)

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
