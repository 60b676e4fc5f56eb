package services

import (
	"context"
	"testing"
	"time"

	"storefront-api/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildCacheKeyDeterministic(t *testing.T) {
	minPrice := 100.0

	q1 := models.ProductQuery{Page: 1, Limit: 10, MinPrice: &minPrice, Category: "electronics"}
	q2 := models.ProductQuery{Category: "electronics", MinPrice: &minPrice, Limit: 10, Page: 1}

	// 論理的に同一のクエリは構築順に関係なく同じキーになる
	assert.Equal(t, BuildCacheKey(q1), BuildCacheKey(q2))

	q3 := q1
	q3.Page = 2
	assert.NotEqual(t, BuildCacheKey(q1), BuildCacheKey(q3))

	q4 := q1
	q4.MinPrice = nil
	assert.NotEqual(t, BuildCacheKey(q1), BuildCacheKey(q4))
}

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryProductCache()
	ctx := context.Background()

	_, hit := cache.Get(ctx, "products:page=1")
	assert.False(t, hit)

	cache.Set(ctx, "products:page=1", []byte(`{"total":1}`), time.Minute)

	payload, hit := cache.Get(ctx, "products:page=1")
	assert.True(t, hit)
	assert.Equal(t, []byte(`{"total":1}`), payload)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	cache := NewMemoryProductCache()
	ctx := context.Background()

	cache.Set(ctx, "products:page=1", []byte("payload"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, hit := cache.Get(ctx, "products:page=1")
	assert.False(t, hit, "期限切れのエントリはミスになること")

	// 期限切れの読み出しでエントリ自体も破棄され、マップに残骸が溜まらない
	cache.mu.RLock()
	_, stillThere := cache.entries["products:page=1"]
	cache.mu.RUnlock()
	assert.False(t, stillThere, "期限切れエントリは読み出し時に削除されること")
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	cache := NewMemoryProductCache()
	ctx := context.Background()

	cache.Set(ctx, "products:page=1", []byte("a"), time.Minute)
	cache.Set(ctx, "products:page=2", []byte("b"), time.Minute)

	cache.InvalidateAll(ctx)

	// 明示的に触れていないキーも含めて全破棄される
	_, hit := cache.Get(ctx, "products:page=1")
	assert.False(t, hit)
	_, hit = cache.Get(ctx, "products:page=2")
	assert.False(t, hit)
}
