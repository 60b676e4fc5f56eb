package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-api/pkg/models"
	"storefront-api/pkg/services"
	"storefront-api/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// testEnv テスト用のルーターと依存一式
type testEnv struct {
	router     *gin.Engine
	orders     *store.MemoryOrderStore
	searchLogs *store.MemorySearchLogStore
	products   *store.MemoryProductStore
	cache      *services.MemoryProductCache
}

func setupTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		orders:     store.NewMemoryOrderStore(),
		searchLogs: store.NewMemorySearchLogStore(),
		products:   store.NewMemoryProductStore(),
		cache:      services.NewMemoryProductCache(),
	}

	reportHandler := NewReportHandler(
		services.NewReportService(env.orders, env.searchLogs),
		services.NewExportService(),
	)
	productHandler := NewProductHandler(env.products, env.searchLogs, env.cache, time.Minute)

	r := gin.New()
	r.GET("/health", HealthCheck)
	api := r.Group("/api")
	{
		sales := api.Group("/order/sales")
		{
			sales.GET("/daily/:date", reportHandler.GetDailySales)
			sales.GET("/monthly/:year/:month", reportHandler.GetMonthlySales)
			sales.GET("/trends", reportHandler.GetSalesTrends)
			sales.GET("/total-report", reportHandler.GetTotalReport)
			sales.GET("/bucketed-report", reportHandler.GetBucketedReport)
		}
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.POST("", productHandler.AddProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
		}
	}

	env.router = r
	return env
}

func (env *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) postJSON(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("POST", path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func seedOrder(env *testEnv, createdAt time.Time, productID string, price string, quantity int) {
	env.orders.Add(models.Order{
		ID:        "order-" + createdAt.Format("20060102150405"),
		UserID:    "user-1",
		CreatedAt: createdAt,
		Items: []models.OrderItem{{
			ProductID: productID,
			Name:      "商品" + productID,
			Price:     decimal.RequireFromString(price),
			Quantity:  quantity,
		}},
	})
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestGetDailySales(t *testing.T) {
	env := setupTestEnv()
	seedOrder(env, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), "A", "10.00", 2)

	w := env.get(t, "/api/order/sales/daily/2024-01-05")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "totalSales")
	assert.Contains(t, w.Body.String(), `"totalSales":2`)
}

func TestGetDailySalesNoData(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/daily/2024-01-05")

	// 売上ゼロは200でmessage付き（エラーではない）
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestGetDailySalesInvalidDate(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/daily/not-a-date")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetMonthlySalesInvalidMonth(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/monthly/2024/13")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSalesTrendsNoData(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/trends")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestGetTotalReportJSON(t *testing.T) {
	env := setupTestEnv()
	seedOrder(env, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), "A", "10.00", 2)
	seedOrder(env, time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC), "B", "5.00", 1)

	w := env.get(t, "/api/order/sales/total-report?startDate=2024-01-01&endDate=2024-01-31")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "topSellingProducts")
	assert.Contains(t, w.Body.String(), "topSearchedProducts")
	assert.Contains(t, w.Body.String(), "totalRevenue")
}

func TestGetTotalReportMissingDates(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/total-report?startDate=2024-01-01")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTotalReportExportCSV(t *testing.T) {
	env := setupTestEnv()
	seedOrder(env, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), "A", "10.00", 2)

	w := env.get(t, "/api/order/sales/total-report?startDate=2024-01-01&endDate=2024-01-31&exportFormat=csv")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_report.csv")

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	assert.Equal(t, "productId,productName,totalSales,totalRevenue", lines[0])
	assert.Len(t, lines, 2)
}

func TestGetTotalReportUnsupportedFormat(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/total-report?startDate=2024-01-01&endDate=2024-01-31&exportFormat=bogus")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetBucketedReportInvalidGranularity(t *testing.T) {
	env := setupTestEnv()

	w := env.get(t, "/api/order/sales/bucketed-report?startDate=2024-01-01&endDate=2024-02-01&type=hourly")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBucketedReportWeekly(t *testing.T) {
	env := setupTestEnv()
	seedOrder(env, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), "A", "10.00", 1)
	seedOrder(env, time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), "A", "10.00", 2)

	w := env.get(t, "/api/order/sales/bucketed-report?startDate=2024-01-01&endDate=2024-02-01&type=weekly")

	assert.Equal(t, http.StatusOK, w.Code)
	// 月曜と同週の日曜は1つのバケットにまとまる
	assert.Contains(t, w.Body.String(), `"totalSales":3`)
	assert.Contains(t, w.Body.String(), `"weekOfYear":1`)
}

func seedProduct(t *testing.T, env *testEnv, name, category string) {
	t.Helper()
	err := env.products.Insert(context.Background(), &models.Product{
		ID:        "p-" + name,
		Name:      name,
		Price:     decimal.RequireFromString("1000.00"),
		Category:  category,
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
}

func TestGetProductsCacheHitWithReorderedParams(t *testing.T) {
	env := setupTestEnv()
	seedProduct(t, env, "イヤホン", "electronics")

	// 1回目はミス（sourceマーカーなし）
	w1 := env.get(t, "/api/products?page=1&category=electronics")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.NotContains(t, w1.Body.String(), `"source"`)

	// パラメータ順だけ入れ替えた2回目はヒット
	w2 := env.get(t, "/api/products?category=electronics&page=1")
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), `"source":"cache"`)
}

func TestAddProductInvalidatesCache(t *testing.T) {
	env := setupTestEnv()
	seedProduct(t, env, "イヤホン", "electronics")

	// キャッシュを温める
	env.get(t, "/api/products?page=1&category=electronics")
	w := env.get(t, "/api/products?page=1&category=electronics")
	assert.Contains(t, w.Body.String(), `"source":"cache"`)

	// 商品作成でキャッシュが全破棄される
	created := env.postJSON(t, "/api/products",
		`{"name":"タンブラー","price":1980,"category":"kitchen"}`)
	assert.Equal(t, http.StatusCreated, created.Code)

	// 同一クエリでも必ずミスになる
	w = env.get(t, "/api/products?page=1&category=electronics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"source"`)
}

func TestAddProductValidation(t *testing.T) {
	env := setupTestEnv()

	w := env.postJSON(t, "/api/products", `{"name":"","price":100,"category":"kitchen"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.postJSON(t, "/api/products", `{"name":"タンブラー","price":-1,"category":"kitchen"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductsLogsSearchTerm(t *testing.T) {
	env := setupTestEnv()
	seedProduct(t, env, "イヤホン", "electronics")

	w := env.get(t, "/api/products?search=イヤホン")
	assert.Equal(t, http.StatusOK, w.Code)

	// 検索語が検索ログに記録される
	entries, err := env.searchLogs.FindBySearchedRange(context.Background(),
		time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "イヤホン", entries[0].SearchTerm)

	// キャッシュヒットで返っても検索イベントとしては数える。
	// 繰り返し検索こそランキングに効くため、TTL内の再検索を落とさないこと
	w = env.get(t, "/api/products?search=イヤホン")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"cache"`)

	entries, err = env.searchLogs.FindBySearchedRange(context.Background(),
		time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUpdateProductNotFound(t *testing.T) {
	env := setupTestEnv()

	req, err := http.NewRequest("PUT", "/api/products/missing",
		bytes.NewBufferString(`{"name":"タンブラー","price":1980,"category":"kitchen"}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
