package handlers

import (
	"net/http"
	"strconv"
	"time"

	"storefront-api/pkg/models"

	"github.com/gin-gonic/gin"
)

// parseDateRange startDate/endDateクエリをパースします。
// 不正な場合は400を応答済みにしてok=falseを返します。
func parseDateRange(c *gin.Context) (start, end time.Time, ok bool) {
	startStr := c.Query("startDate")
	endStr := c.Query("endDate")
	if startStr == "" || endStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "startDateとendDateの両方を指定してください。",
		})
		return
	}

	var err error
	start, err = time.Parse("2006-01-02", startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "startDateはYYYY-MM-DD形式で指定してください。",
		})
		return
	}
	end, err = time.Parse("2006-01-02", endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "endDateはYYYY-MM-DD形式で指定してください。",
		})
		return
	}

	return start, end, true
}

// parseProductQuery 商品一覧クエリパラメータをパースします。
// 不正な数値は400を応答済みにしてok=falseを返します。
func parseProductQuery(c *gin.Context) (q models.ProductQuery, ok bool) {
	q = models.ProductQuery{
		Page:     1,
		Limit:    10,
		Sort:     c.Query("sort"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	}

	if v := c.Query("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "pageには1以上の整数を指定してください。"})
			return
		}
		q.Page = parsed
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limitには1以上の整数を指定してください。"})
			return
		}
		q.Limit = parsed
	}
	if v := c.Query("min_price"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "min_priceには数値を指定してください。"})
			return
		}
		q.MinPrice = &parsed
	}
	if v := c.Query("max_price"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "max_priceには数値を指定してください。"})
			return
		}
		q.MaxPrice = &parsed
	}

	return q, true
}
