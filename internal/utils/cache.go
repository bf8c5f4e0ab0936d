package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间1分钟，清理间隔5分钟
	Cache = cache.New(time.Minute, 5*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// cacheItem 包装实际的数据，附带过期时间
type cacheItem[T any] struct {
	value     T
	expiredAt time.Time
}

// ListingCache 列表页缓存，LRU 限容 + TTL 过期
type ListingCache[T any] struct {
	storage *lru.Cache[string, cacheItem[T]]
	ttl     time.Duration
}

// NewListingCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewListingCache[T any](size int, ttl time.Duration) *ListingCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, cacheItem[T]](size)
	return &ListingCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（已存在则覆盖）
func (c *ListingCache[T]) Set(key string, value T) {
	c.storage.Add(key, cacheItem[T]{
		value:     value,
		expiredAt: time.Now().Add(c.ttl),
	})
}

// Get 读取，带过期检查
func (c *ListingCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.expiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.value, true
}

// Clear 清空全部条目
func (c *ListingCache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前条目数
func (c *ListingCache[T]) Len() int {
	return c.storage.Len()
}
