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

package tenant

import (
	"context"
	"errors"
	"sync"
)

// ErrTenantNotFound is returned when no tenant matches the lookup key.
var ErrTenantNotFound = errors.New("tenant not found")

// StoreInterface provides read-only tenant lookups.
type StoreInterface interface {
	GetTenant(ctx context.Context, tenantID string) (Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (Tenant, error)
}

// InMemoryStore is a StoreInterface backed by a map, loaded at startup.
type InMemoryStore struct {
	tenants  map[string]Tenant
	byDomain map[string]string
	mu       sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory tenant store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tenants:  make(map[string]Tenant),
		byDomain: make(map[string]string),
	}
}

// Add registers a tenant. Intended for startup loading and tests.
func (s *InMemoryStore) Add(tenant Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenants[tenant.ID] = tenant
	if tenant.Domain != "" {
		s.byDomain[tenant.Domain] = tenant.ID
	}
	if tenant.CustomDomain != "" {
		s.byDomain[tenant.CustomDomain] = tenant.ID
	}
}

// GetTenant resolves a tenant by ID.
func (s *InMemoryStore) GetTenant(_ context.Context, tenantID string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return Tenant{}, ErrTenantNotFound
	}
	return tenant, nil
}

// GetTenantByDomain resolves a tenant by its domain or custom domain.
func (s *InMemoryStore) GetTenantByDomain(_ context.Context, domain string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID, ok := s.byDomain[domain]
	if !ok {
		return Tenant{}, ErrTenantNotFound
	}
	return s.tenants[tenantID], nil
}
