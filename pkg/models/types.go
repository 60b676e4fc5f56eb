package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a single line item within an order
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`    // 注文時点の価格スナップショット
	Quantity  int             `json:"quantity"` // 注文数量
}

// Order represents a confirmed order (read-only for the reporting core)
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Contributing 集計対象となる明細かどうかを判定します。
// 数量・価格が0以下の明細はデータ品質上のノイズとして集計から除外します（削除はしない）。
func (i OrderItem) Contributing() bool {
	return i.Quantity > 0 && i.Price.IsPositive()
}

// Revenue 明細の売上金額（価格×数量）を返します。
func (i OrderItem) Revenue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SearchLogEntry 検索ログの1件（書き込み後は不変）
type SearchLogEntry struct {
	SearchTerm string    `json:"searchTerm"`
	SearchedAt time.Time `json:"searchedAt"`
}

// Product represents a catalog product
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Views       int             `json:"views"`
	Popularity  int             `json:"popularity"`
	Reviews     int             `json:"reviews"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProductQuery 商品一覧取得のクエリ条件。
// キャッシュキーの生成にも使われるため、フィールド追加時はBuildCacheKeyの更新を忘れないこと。
type ProductQuery struct {
	Page     int
	Limit    int
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Category string
	Search   string
	Tag      string
}

// ProductPage 商品一覧クエリの結果（ページング情報付き）
type ProductPage struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

// Granularity 集計バケットの粒度
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// BucketKey 時間バケットの構造化キー。
// 粒度によって使用するフィールドが変わります:
//   - daily:   Year / Month / Day
//   - weekly:  Year / ISOWeek（ISO-8601の週番号・月曜始まり。週は月をまたぐため月は持たない）
//   - monthly: Year / Month
type BucketKey struct {
	Year    int `json:"year"`
	Month   int `json:"month,omitempty"`
	Day     int `json:"day,omitempty"`
	ISOWeek int `json:"weekOfYear,omitempty"`
}

// Less バケットキーの時系列昇順比較。
// 未使用のフィールドはゼロのため、3つのキー形状すべてで正しく順序付けできます。
func (k BucketKey) Less(other BucketKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	return k.ISOWeek < other.ISOWeek
}

// SalesTotal 単一期間の売上集計結果
type SalesTotal struct {
	TotalSales   int             `json:"totalSales"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// ReportRow 集計レポートの1行。エクスポートの入力にもなります。
// バケットなし（商品ランキング）の場合はBucketがnilになります。
type ReportRow struct {
	Bucket       *BucketKey      `json:"bucketKey,omitempty"`
	ProductID    string          `json:"productId,omitempty"`
	ProductName  string          `json:"productName,omitempty"`
	TotalSales   int             `json:"totalSales"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// SearchTermCount 検索語ランキングの1行
type SearchTermCount struct {
	SearchTerm string `json:"searchTerm"`
	Count      int    `json:"count"`
}

// RankedReport 期間指定の商品ランキングレポート。
// TopSellingProductsとTopSearchedProductsは無関係なコレクションから独立に算出されます。
// レポート表示の都合で1つのレスポンスにまとめているだけで、両者に結合関係はありません。
type RankedReport struct {
	TotalRevenue        decimal.Decimal   `json:"totalRevenue"`
	TopSellingProducts  []ReportRow       `json:"topSellingProducts"`
	TopSearchedProducts []SearchTermCount `json:"topSearchedProducts"`
}
