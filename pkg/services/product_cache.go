package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"storefront-api/pkg/models"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL キャッシュエントリのデフォルト有効期間
const DefaultCacheTTL = 600 * time.Second

// cacheKeyPrefix 商品一覧キャッシュのキー名前空間
const cacheKeyPrefix = "products:"

// ProductCache 商品一覧クエリのリードスルーキャッシュ。
// キャッシュはレイテンシ最適化であって正しさの依存先ではない。
// 実装はバックエンド障害時に必ず「常にミス」へ縮退し、リクエストを失敗させてはならない。
type ProductCache interface {
	// Get キーに対応するペイロードを返します。存在しない・期限切れ・障害時はfalse。
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set ペイロードをTTL付きで保存します。失敗しても呼び出し側には影響しません。
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	// InvalidateAll 全エントリを破棄します。カタログ変更（商品の作成・更新）後に呼びます。
	// キーはパラメータを平坦化した文字列のため、カテゴリ単位などの部分無効化は
	// 文字列一致では正しく絞り込めない。ヒット率よりも正しさを取り、全破棄とする。
	InvalidateAll(ctx context.Context)
}

// BuildCacheKey クエリ条件から決定的なキャッシュキーを生成します。
// パラメータは常に固定順で連結するため、論理的に同一のクエリは
// クライアント側のパラメータ順序に関係なく同じキーに解決されます。
func BuildCacheKey(q models.ProductQuery) string {
	return fmt.Sprintf("%spage=%d&limit=%d&min_price=%s&max_price=%s&sort=%s&category=%s&search=%s&tag=%s",
		cacheKeyPrefix, q.Page, q.Limit,
		formatPriceBound(q.MinPrice), formatPriceBound(q.MaxPrice),
		q.Sort, q.Category, q.Search, q.Tag)
}

func formatPriceBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// RedisProductCache ProductCacheのRedis実装。
// Redisのエラーはすべて内部で吸収し、ログに残すだけでミス扱いとして継続します。
type RedisProductCache struct {
	client *redis.Client
}

// NewRedisProductCache 新しいRedisProductCacheを生成します。
func NewRedisProductCache(client *redis.Client) *RedisProductCache {
	return &RedisProductCache{client: client}
}

// Get キャッシュからペイロードを取得します。
func (c *RedisProductCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("キャッシュ取得に失敗（ミスとして継続）: %v", err)
		return nil, false
	}
	return payload, true
}

// Set ペイロードをTTL付きで保存します。
func (c *RedisProductCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("キャッシュ保存に失敗（無視して継続）: %v", err)
	}
}

// InvalidateAll 名前空間配下の全キーを削除します。
func (c *RedisProductCache) InvalidateAll(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("キャッシュキーの走査に失敗（無視して継続）: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("キャッシュ削除に失敗（無視して継続）: %v", err)
	}
}

// memoryCacheEntry インメモリキャッシュの1エントリ
type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryProductCache ProductCacheのインメモリ実装。
// REDIS_ADDR未設定のローカル起動とテストで使用します。
type MemoryProductCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

// NewMemoryProductCache 新しいMemoryProductCacheを生成します。
func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{
		entries: make(map[string]memoryCacheEntry),
	}
}

// Get キャッシュからペイロードを取得します。
// 期限切れのエントリはミスとして扱い、その場で削除します。
// 削除しないとTTL切れの残骸がマップに溜まり続けるため
func (c *MemoryProductCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.payload, true
}

// Set ペイロードをTTL付きで保存します。
func (c *MemoryProductCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateAll 全エントリを破棄します。
func (c *MemoryProductCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryCacheEntry)
}
