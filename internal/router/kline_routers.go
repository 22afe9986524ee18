package router

import (
	"github.com/gin-gonic/gin"

	"klinehub/internal/handler"
)

func registerKlineRoutes(router *gin.Engine, h *handler.KlineHandler) {
	router.GET("/", h.GetRoot)
	router.GET("/supported", h.GetSupported)

	kline := router.Group("/kline")
	{
		kline.GET("", h.GetKlines)
		kline.GET("/hourly", h.GetHourly)
		kline.GET("/all/latest", h.GetAllLatest)
		kline.GET("/:symbol", h.GetSymbolKlines)
		kline.GET("/:symbol/hourly", h.GetSymbolHourly)
	}
}
