package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxRequestLogs 保持するリクエストログの上限（超過分は古いものから破棄）
const maxRequestLogs = 10000

// RequestLog 単一のリクエストログ
type RequestLog struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// MonitoringService APIのリクエストログ収集と集計を提供します。
type MonitoringService struct {
	logs []RequestLog
	mu   sync.RWMutex
}

// NewMonitoringService 新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]RequestLog, 0),
	}
}

// LoggingMiddleware リクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 管理・モニタリング系のパスは記録対象外
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/admin") || strings.HasPrefix(path, "/api/monitoring") {
			return
		}

		s.mu.Lock()
		s.logs = append(s.logs, RequestLog{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
		if len(s.logs) > maxRequestLogs {
			s.logs = s.logs[len(s.logs)-maxRequestLogs:]
		}
		s.mu.Unlock()
	}
}

// MonitoringSummary 集計済みのモニタリングデータ
type MonitoringSummary struct {
	TotalRequests int            `json:"totalRequests"`
	Endpoints     map[string]int `json:"endpoints"`
	StatusClasses map[string]int `json:"statusClasses"`
	RecentErrors  []RequestLog   `json:"recentErrors"`
}

// Summary 指定期間のリクエストログを集計して返します。
func (s *MonitoringService) Summary(period time.Duration) MonitoringSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := time.Now().Add(-period)

	summary := MonitoringSummary{
		Endpoints:     make(map[string]int),
		StatusClasses: map[string]int{"2xx": 0, "4xx": 0, "5xx": 0},
		RecentErrors:  make([]RequestLog, 0),
	}

	for _, entry := range s.logs {
		if entry.Timestamp.Before(since) {
			continue
		}
		summary.TotalRequests++
		summary.Endpoints[entry.Path]++

		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			summary.StatusClasses["2xx"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			summary.StatusClasses["4xx"]++
		case entry.StatusCode >= 500:
			summary.StatusClasses["5xx"]++
		}
	}

	// 直近のサーバーエラーを新しい順に最大10件
	for i := len(s.logs) - 1; i >= 0 && len(summary.RecentErrors) < 10; i-- {
		if s.logs[i].StatusCode >= 500 && !s.logs[i].Timestamp.Before(since) {
			summary.RecentErrors = append(summary.RecentErrors, s.logs[i])
		}
	}

	return summary
}
