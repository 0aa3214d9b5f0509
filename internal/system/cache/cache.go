/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package cache provides a generic TTL cache used in front of durable stores.
package cache

import (
	"sync"
	"time"

	"github.com/asgardeo/tempest/internal/system/config"
)

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 300 // seconds
)

// CacheKey represents a key in the cache.
type CacheKey struct {
	Key string
}

// CacheInterface defines the common interface for cache operations.
type CacheInterface[T any] interface {
	GetName() string
	Set(key CacheKey, value T)
	Get(key CacheKey) (T, bool)
	Delete(key CacheKey)
	Clear()
	IsEnabled() bool
	CleanupExpired()
}

// cacheEntry represents a single cached value with its expiry time.
type cacheEntry[T any] struct {
	value      T
	expiryTime time.Time
}

// Cache implements the CacheInterface backed by an in-memory map.
type Cache[T any] struct {
	enabled   bool
	cacheName string
	maxSize   int
	ttl       time.Duration
	entries   map[CacheKey]cacheEntry[T]
	mu        sync.RWMutex
}

// NewCache creates a new cache instance for the given logical cache name.
func NewCache[T any](cacheName string) CacheInterface[T] {
	cacheConfig := config.GetTempestRuntime().Config.Cache
	if cacheConfig.Disabled {
		return &Cache[T]{
			enabled:   false,
			cacheName: cacheName,
		}
	}

	size := cacheConfig.Size
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := cacheConfig.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Cache[T]{
		enabled:   true,
		cacheName: cacheName,
		maxSize:   size,
		ttl:       time.Duration(ttl) * time.Second,
		entries:   make(map[CacheKey]cacheEntry[T]),
	}
}

// GetName returns the logical name of the cache.
func (c *Cache[T]) GetName() string {
	return c.cacheName
}

// IsEnabled returns whether the cache is enabled.
func (c *Cache[T]) IsEnabled() bool {
	return c.enabled
}

// Set adds a value to the cache under the given key.
func (c *Cache[T]) Set(key CacheKey, value T) {
	if !c.enabled || key.Key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict expired entries when the cache is full.
	if len(c.entries) >= c.maxSize {
		c.evictExpired()
	}
	if len(c.entries) >= c.maxSize {
		return
	}

	c.entries[key] = cacheEntry[T]{
		value:      value,
		expiryTime: time.Now().Add(c.ttl),
	}
}

// Get retrieves a value from the cache.
func (c *Cache[T]) Get(key CacheKey) (T, bool) {
	var zero T
	if !c.enabled || key.Key == "" {
		return zero, false
	}

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return zero, false
	}
	if time.Now().After(entry.expiryTime) {
		c.Delete(key)
		return zero, false
	}
	return entry.value, true
}

// Delete removes a value from the cache.
func (c *Cache[T]) Delete(key CacheKey) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all values from the cache.
func (c *Cache[T]) Clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]cacheEntry[T])
}

// CleanupExpired removes all expired entries from the cache.
func (c *Cache[T]) CleanupExpired() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired()
}

// evictExpired removes expired entries. Caller must hold the write lock.
func (c *Cache[T]) evictExpired() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiryTime) {
			delete(c.entries, key)
		}
	}
}
