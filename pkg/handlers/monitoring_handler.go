package handlers

import (
	"net/http"
	"time"

	"storefront-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler モニタリング関連操作のハンドラです。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler 新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs 集計されたリクエストログを返します。
// GET /api/monitoring/logs?period=1h|24h|7d
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	var period time.Duration

	switch c.DefaultQuery("period", "24h") {
	case "1h":
		period = time.Hour
	case "7d":
		period = 7 * 24 * time.Hour
	default:
		period = 24 * time.Hour
	}

	c.JSON(http.StatusOK, h.Service.Summary(period))
}
