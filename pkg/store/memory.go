package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-api/pkg/models"
)

// インメモリ実装。DATABASE_URL未設定のローカル起動とテストで使用します。
// 並行リクエストに備えてRWMutexで保護します。

// MemoryOrderStore OrderStoreのインメモリ実装
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders []models.Order
}

// NewMemoryOrderStore 新しいMemoryOrderStoreを生成します。
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{}
}

// Add 注文を追加します（シード・テスト用）。
func (s *MemoryOrderStore) Add(orders ...models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, orders...)
}

// FindByCreatedRange [start, end) に作成された注文を作成日時昇順で返します。
func (s *MemoryOrderStore) FindByCreatedRange(_ context.Context, start, end time.Time) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Order
	for _, order := range s.orders {
		if !order.CreatedAt.Before(start) && order.CreatedAt.Before(end) {
			result = append(result, order)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// MemorySearchLogStore SearchLogStoreのインメモリ実装
type MemorySearchLogStore struct {
	mu      sync.RWMutex
	entries []models.SearchLogEntry
}

// NewMemorySearchLogStore 新しいMemorySearchLogStoreを生成します。
func NewMemorySearchLogStore() *MemorySearchLogStore {
	return &MemorySearchLogStore{}
}

// Append 検索ログを1件追記します。
func (s *MemorySearchLogStore) Append(_ context.Context, entry models.SearchLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// FindBySearchedRange [start, end) の検索ログを返します。
func (s *MemorySearchLogStore) FindBySearchedRange(_ context.Context, start, end time.Time) ([]models.SearchLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.SearchLogEntry
	for _, entry := range s.entries {
		if !entry.SearchedAt.Before(start) && entry.SearchedAt.Before(end) {
			result = append(result, entry)
		}
	}
	return result, nil
}

// MemoryProductStore ProductStoreのインメモリ実装
type MemoryProductStore struct {
	mu       sync.RWMutex
	products []models.Product
}

// NewMemoryProductStore 新しいMemoryProductStoreを生成します。
func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{}
}

// Find フィルタ・ソート・ページングを適用して商品一覧を返します。
func (s *MemoryProductStore) Find(_ context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Product, 0)
	for _, p := range s.products {
		if q.MinPrice != nil && p.Price.InexactFloat64() < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price.InexactFloat64() > *q.MaxPrice {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
			continue
		}
		if q.Tag != "" && !containsTag(p.Tags, q.Tag) {
			continue
		}
		matched = append(matched, p)
	}

	switch q.Sort {
	case "oldest":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	case "views":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Views > matched[j].Views })
	case "popularity":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Popularity > matched[j].Popularity })
	case "reviews":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Reviews > matched[j].Reviews })
	default: // 新着順
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	total := len(matched)
	offset := (q.Page - 1) * q.Limit
	if offset > total {
		offset = total
	}
	end := offset + q.Limit
	if end > total {
		end = total
	}

	return &models.ProductPage{Total: total, Products: matched[offset:end]}, nil
}

// Insert 商品を新規登録します。
func (s *MemoryProductStore) Insert(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, *p)
	return nil
}

// Update 既存商品を更新します。
func (s *MemoryProductStore) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			created := s.products[i].CreatedAt
			s.products[i] = *p
			s.products[i].CreatedAt = created
			return nil
		}
	}
	return ErrProductNotFound
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
