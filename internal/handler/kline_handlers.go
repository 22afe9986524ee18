// Package handler maps HTTP requests onto the kline read service.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"klinehub/internal/assets"
	"klinehub/internal/service"
)

// KlineHandler exposes stored kline history over HTTP.
type KlineHandler struct {
	svc    *service.KlineService
	logger *logrus.Logger
}

// NewKlineHandler builds the handler set.
func NewKlineHandler(svc *service.KlineService, logger *logrus.Logger) *KlineHandler {
	return &KlineHandler{svc: svc, logger: logger}
}

// GetRoot is the liveness check.
func (h *KlineHandler) GetRoot(c *gin.Context) {
	c.String(http.StatusOK, "Crypto backend is running")
}

// GetSupported lists the configured assets.
func (h *KlineHandler) GetSupported(c *gin.Context) {
	c.JSON(http.StatusOK, assets.Supported)
}

// GetKlines serves /kline for the primary asset. The pair query param may
// override the stored pair filter.
func (h *KlineHandler) GetKlines(c *gin.Context) {
	asset := assets.Primary()
	pair := c.DefaultQuery("pair", asset.Pair)
	h.serveHistory(c, asset, pair)
}

// GetSymbolKlines serves /kline/:symbol.
func (h *KlineHandler) GetSymbolKlines(c *gin.Context) {
	asset, ok := h.resolveSymbol(c)
	if !ok {
		return
	}
	h.serveHistory(c, asset, asset.Pair)
}

// GetHourly serves /kline/hourly: the latest rows for the primary asset,
// newest first.
func (h *KlineHandler) GetHourly(c *gin.Context) {
	h.serveHourly(c, assets.Primary())
}

// GetSymbolHourly serves /kline/:symbol/hourly.
func (h *KlineHandler) GetSymbolHourly(c *gin.Context) {
	asset, ok := h.resolveSymbol(c)
	if !ok {
		return
	}
	h.serveHourly(c, asset)
}

// GetAllLatest serves /kline/all/latest: symbol -> newest record, null for
// assets that have not been sampled yet.
func (h *KlineHandler) GetAllLatest(c *gin.Context) {
	latest, err := h.svc.LatestAcrossAssets(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

// serveHistory answers a range query when both bounds parse, otherwise the
// most recent rows re-sorted ascending. Callers always get chronological
// order.
func (h *KlineHandler) serveHistory(c *gin.Context, asset assets.Asset, pair string) {
	ctx := c.Request.Context()

	start, okStart := parseTimeParam(c.Query("start"))
	end, okEnd := parseTimeParam(c.Query("end"))

	if okStart && okEnd {
		rows, err := h.svc.Range(ctx, asset, pair, start, end)
		if err != nil {
			h.serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
		return
	}

	rows, err := h.svc.Fallback(ctx, asset, pair, service.FallbackLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *KlineHandler) serveHourly(c *gin.Context, asset assets.Asset) {
	rows, err := h.svc.Latest(c.Request.Context(), asset, service.HourlyLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *KlineHandler) resolveSymbol(c *gin.Context) (assets.Asset, bool) {
	symbol := c.Param("symbol")
	asset, ok := assets.BySymbol(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("Cryptocurrency %s not supported", symbol),
		})
		return assets.Asset{}, false
	}
	return asset, true
}

func (h *KlineHandler) serverError(c *gin.Context, err error) {
	h.logger.Errorf("Storage query failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
}

// parseTimeParam accepts unix milliseconds or RFC3339. The bool reports
// whether the param was present and well formed.
func parseTimeParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}
