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

package protocolstate

import (
	"context"
	"time"

	"github.com/asgardeo/tempest/internal/system/cache"
)

// CachedStore fronts a durable protocol state store with a read-through,
// write-through cache. Consume and Remove always hit the durable store so the
// single-use guarantee never rests on cache state alone.
type CachedStore struct {
	store      StoreInterface
	stateCache cache.CacheInterface[ProtocolState]
}

// NewCachedStore wraps the given store with a cache layer.
func NewCachedStore(store StoreInterface) StoreInterface {
	return &CachedStore{
		store:      store,
		stateCache: cache.NewCache[ProtocolState]("protocolState"),
	}
}

// Store persists the state and caches it under the returned correlation ID.
func (s *CachedStore) Store(ctx context.Context, state ProtocolState, ttl time.Duration) (string, error) {
	correlationID, err := s.store.Store(ctx, state, ttl)
	if err != nil {
		return "", err
	}
	s.stateCache.Set(cache.CacheKey{Key: correlationID}, state)
	return correlationID, nil
}

// Get retrieves the state, consulting the cache first.
func (s *CachedStore) Get(ctx context.Context, correlationID string) (*ProtocolState, error) {
	if cached, ok := s.stateCache.Get(cache.CacheKey{Key: correlationID}); ok {
		state := cached
		return &state, nil
	}

	state, err := s.store.Get(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	s.stateCache.Set(cache.CacheKey{Key: correlationID}, *state)
	return state, nil
}

// Update writes through to the durable store and refreshes the cache entry.
func (s *CachedStore) Update(ctx context.Context, correlationID string, state ProtocolState) error {
	if err := s.store.Update(ctx, correlationID, state); err != nil {
		s.stateCache.Delete(cache.CacheKey{Key: correlationID})
		return err
	}
	s.stateCache.Set(cache.CacheKey{Key: correlationID}, state)
	return nil
}

// Consume delegates to the durable store and invalidates the cache entry.
// The durable store decides whether this consumer won.
func (s *CachedStore) Consume(ctx context.Context, correlationID string) (*ProtocolState, error) {
	s.stateCache.Delete(cache.CacheKey{Key: correlationID})
	return s.store.Consume(ctx, correlationID)
}

// Remove deletes the state and invalidates the cache entry.
func (s *CachedStore) Remove(ctx context.Context, correlationID string) error {
	s.stateCache.Delete(cache.CacheKey{Key: correlationID})
	return s.store.Remove(ctx, correlationID)
}
