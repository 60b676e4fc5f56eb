package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	config "storefront-api/configs"
	"storefront-api/pkg/handlers"
	"storefront-api/pkg/services"
	"storefront-api/pkg/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	// Ginルーターの初期化
	r := gin.Default()

	// ストアの初期化（DATABASE_URL未設定時はインメモリで起動）
	var (
		orderStore     store.OrderStore
		searchLogStore store.SearchLogStore
		productStore   store.ProductStore
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("データベース接続の初期化に失敗: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("データベースへの疎通確認に失敗: %v", err)
		}
		orderStore = store.NewPostgresOrderStore(db)
		searchLogStore = store.NewPostgresSearchLogStore(db)
		productStore = store.NewPostgresProductStore(db)
	} else {
		log.Println("Warning: DATABASE_URL is not set, using in-memory stores")
		orderStore = store.NewMemoryOrderStore()
		searchLogStore = store.NewMemorySearchLogStore()
		productStore = store.NewMemoryProductStore()
	}

	// キャッシュの初期化（REDIS_ADDR未設定時はインメモリ）。
	// Redisに繋がらなくても起動は継続する。キャッシュ障害は常にミスとして縮退するため
	var productCache services.ProductCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis疎通確認に失敗（キャッシュは常にミス扱いで継続）: %v", err)
		}
		productCache = services.NewRedisProductCache(rdb)
	} else {
		productCache = services.NewMemoryProductCache()
	}

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	reportService := services.NewReportService(orderStore, searchLogStore)
	exportService := services.NewExportService()

	// ハンドラーの初期化
	reportHandler := handlers.NewReportHandler(reportService, exportService)
	productHandler := handlers.NewProductHandler(productStore, searchLogStore, productCache,
		time.Duration(cfg.CacheTTLSeconds)*time.Second)
	adminHandler := handlers.NewAdminHandler(cfg)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	// ヘルスチェックエンドポイント
	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api")
	{
		// 売上レポートAPI
		sales := api.Group("/order/sales")
		{
			sales.GET("/daily/:date", reportHandler.GetDailySales)
			sales.GET("/monthly/:year/:month", reportHandler.GetMonthlySales)
			sales.GET("/trends", reportHandler.GetSalesTrends)
			sales.GET("/total-report", reportHandler.GetTotalReport)
			sales.GET("/bucketed-report", reportHandler.GetBucketedReport)
		}

		// 商品カタログAPI
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.POST("", productHandler.AddProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
		}

		// 管理者向けAPI
		admin := api.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		// モニタリングAPI
		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting storefront-api server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
