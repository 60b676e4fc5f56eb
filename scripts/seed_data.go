//go:build ignore

package main

import (
	"database/sql"
	"log"
	"time"

	config "storefront-api/configs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ローカル開発用のデモデータ投入スクリプト。
// 商品・注文・検索ログを投入し、レポートAPIを手元で確認できる状態にします。
//
//	go run scripts/seed_data.go
func main() {
	log.Println("🚀 デモデータの投入を開始します...")

	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URLが設定されていません。")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("データベース接続の初期化に失敗: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("データベースへの疎通確認に失敗: %v", err)
	}

	// 商品の投入
	type seedProduct struct {
		name     string
		category string
		price    string
		tags     []string
	}
	products := []seedProduct{
		{"ワイヤレスイヤホン", "electronics", "4980.00", []string{"audio", "wireless"}},
		{"ステンレスタンブラー", "kitchen", "1980.00", []string{"drinkware"}},
		{"ランニングシューズ", "sports", "8800.00", []string{"running", "shoes"}},
		{"オーガニックコーヒー豆 200g", "food", "1280.00", []string{"coffee", "organic"}},
		{"モバイルバッテリー 10000mAh", "electronics", "2980.00", []string{"battery", "mobile"}},
	}

	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		id := uuid.New().String()
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			log.Fatalf("価格の解釈に失敗: %v", err)
		}
		_, err = db.Exec(
			`INSERT INTO products (id, name, description, price, category, image, tags, views, popularity, reviews, created_at)
			 VALUES ($1, $2, '', $3, $4, '', $5, 0, 0, 0, NOW())`,
			id, p.name, price, p.category, pq.StringArray(p.tags))
		if err != nil {
			log.Fatalf("商品の投入に失敗: %v", err)
		}
		productIDs = append(productIDs, id)
		log.Printf("✅ 商品を投入しました: %s", p.name)
	}

	// 直近3ヶ月に分散した注文の投入
	now := time.Now()
	orderCount := 0
	for monthOffset := 0; monthOffset < 3; monthOffset++ {
		for day := 1; day <= 25; day += 3 {
			createdAt := time.Date(now.Year(), now.Month(), 1, 10, 0, 0, 0, time.UTC).
				AddDate(0, -monthOffset, day-1)
			if createdAt.After(now) {
				continue
			}

			orderID := uuid.New().String()
			if _, err := db.Exec(
				`INSERT INTO orders (id, user_id, created_at) VALUES ($1, $2, $3)`,
				orderID, uuid.New().String(), createdAt); err != nil {
				log.Fatalf("注文の投入に失敗: %v", err)
			}

			productIdx := (monthOffset + day) % len(productIDs)
			if _, err := db.Exec(
				`INSERT INTO order_items (order_id, product_id, name, price, quantity)
				 VALUES ($1, $2, $3, $4, $5)`,
				orderID, productIDs[productIdx], products[productIdx].name,
				products[productIdx].price, 1+day%3); err != nil {
				log.Fatalf("注文明細の投入に失敗: %v", err)
			}
			orderCount++
		}
	}
	log.Printf("✅ 注文を%d件投入しました", orderCount)

	// 検索ログの投入
	terms := []string{"イヤホン", "コーヒー", "イヤホン", "シューズ", "タンブラー", "イヤホン", "コーヒー"}
	for i, term := range terms {
		searchedAt := now.AddDate(0, 0, -i)
		if _, err := db.Exec(
			`INSERT INTO search_logs (search_term, searched_at) VALUES ($1, $2)`,
			term, searchedAt); err != nil {
			log.Fatalf("検索ログの投入に失敗: %v", err)
		}
	}
	log.Printf("✅ 検索ログを%d件投入しました", len(terms))

	log.Println("🎉 デモデータの投入が完了しました。")
}
