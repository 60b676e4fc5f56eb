package store

import (
	"context"
	"errors"
	"time"

	"storefront-api/pkg/models"
)

// ErrProductNotFound 更新対象の商品が存在しない
var ErrProductNotFound = errors.New("product not found")

// OrderStore 注文ストアへの読み取り専用アクセス。
// 所有は注文管理側にあり、レポートコアからは一切書き込まない。
type OrderStore interface {
	// FindByCreatedRange [start, end) に作成された注文を作成日時昇順で返します。
	FindByCreatedRange(ctx context.Context, start, end time.Time) ([]models.Order, error)
}

// SearchLogStore 検索ログの追記専用ストア
type SearchLogStore interface {
	// Append 検索ログを1件追記します。
	Append(ctx context.Context, entry models.SearchLogEntry) error
	// FindBySearchedRange [start, end) に記録された検索ログを返します。
	FindBySearchedRange(ctx context.Context, start, end time.Time) ([]models.SearchLogEntry, error)
}

// ProductStore 商品カタログストア
type ProductStore interface {
	// Find フィルタ・ソート・ページングを適用して商品一覧を返します。
	Find(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
	// Insert 商品を新規登録します。
	Insert(ctx context.Context, p *models.Product) error
	// Update 既存商品を更新します。存在しない場合はErrProductNotFound。
	Update(ctx context.Context, p *models.Product) error
}
