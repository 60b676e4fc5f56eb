package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"storefront-api/pkg/models"
	"storefront-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler 売上レポートAPIのハンドラです。
type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

// NewReportHandler 新しいReportHandlerを生成します。
func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// GetDailySales 指定日の売上集計を返します。
// GET /api/order/sales/daily/:date
func (h *ReportHandler) GetDailySales(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "日付はYYYY-MM-DD形式で指定してください。",
		})
		return
	}

	total, err := h.reportService.DailyTotal(c.Request.Context(), date)
	if err != nil {
		log.Printf("日次売上の集計に失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "サーバーエラーが発生しました。"})
		return
	}

	// 売上ゼロはエラーではない。フロント側が区別できるようmessageで返す
	if total.TotalSales == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "指定日の売上データはありません。",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": total})
}

// GetMonthlySales 指定した暦月の売上集計を返します。
// GET /api/order/sales/monthly/:year/:month
func (h *ReportHandler) GetMonthlySales(c *gin.Context) {
	year, _ := strconv.Atoi(c.Param("year"))
	month, _ := strconv.Atoi(c.Param("month"))

	total, err := h.reportService.MonthlyTotal(c.Request.Context(), year, month)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("月次売上の集計に失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "サーバーエラーが発生しました。"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": total})
}

// GetSalesTrends 直近6ヶ月の月次売上トレンドを返します。
// GET /api/order/sales/trends
func (h *ReportHandler) GetSalesTrends(c *gin.Context) {
	monthsBack := 6
	if v := c.Query("months"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			monthsBack = parsed
		}
	}

	rows, err := h.reportService.TrailingTrend(c.Request.Context(), monthsBack)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "売上トレンドのデータがありません。"})
			return
		}
		log.Printf("売上トレンドの集計に失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "サーバーエラーが発生しました。"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// GetTotalReport 期間指定の商品ランキングレポートを返します。
// exportFormat指定時はCSV / XLSX / PDFのダウンロードになります。
// GET /api/order/sales/total-report?startDate=&endDate=&limit=&exportFormat=
func (h *ReportHandler) GetTotalReport(c *gin.Context) {
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limitには0以上の整数を指定してください。"})
			return
		}
		limit = parsed
	}

	report, err := h.reportService.RankedProductReport(c.Request.Context(), start, end, limit)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("ランキングレポートの集計に失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "サーバーエラーが発生しました。"})
		return
	}

	if format := c.Query("exportFormat"); format != "" {
		h.streamExport(c, report.TopSellingProducts, format, false)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"totalRevenue":        report.TotalRevenue,
		"topSellingProducts":  report.TopSellingProducts,
		"topSearchedProducts": report.TopSearchedProducts,
	})
}

// GetBucketedReport 期間を時間バケット×商品でグループ化したレポートを返します。
// GET /api/order/sales/bucketed-report?startDate=&endDate=&type=&exportFormat=
func (h *ReportHandler) GetBucketedReport(c *gin.Context) {
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	granularity := models.Granularity(c.DefaultQuery("type", string(models.GranularityDaily)))

	rows, err := h.reportService.BucketedProductReport(c.Request.Context(), start, end, granularity)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRange) || errors.Is(err, models.ErrInvalidGranularity) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Printf("バケットレポートの集計に失敗: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "サーバーエラーが発生しました。"})
		return
	}

	if format := c.Query("exportFormat"); format != "" {
		h.streamExport(c, rows, format, true)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// streamExport レポート行をダウンロード用ストリームとして書き出します。
// 形式の検証はヘッダー送出前に行う（送出後では4xxへ切り替えられないため）。
func (h *ReportHandler) streamExport(c *gin.Context, rows []models.ReportRow, format string, bucketed bool) {
	contentType, err := h.exportService.ContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("サポートされていないエクスポート形式です: %s（csv / xlsx / pdf のいずれかを指定してください）", format),
		})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exportService.FileName(format)))
	c.Status(http.StatusOK)

	if err := h.exportService.Export(rows, format, bucketed, c.Writer); err != nil {
		// レンダリングは内部バッファで完結するため、ここに来るのは実質クライアント切断のみ
		log.Printf("レポートのエクスポートに失敗: %v", err)
	}
}
